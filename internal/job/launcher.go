package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"batchrunner/internal/metrics"
	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
)

const identityCacheSize = 1024

var ErrDuplicateRun = errors.New("a run with identical parameters was already launched")

// PipelineFactory builds a fresh pipeline for every run
type PipelineFactory func(params Parameters) (*pipeline.Pipeline, error)

// Launcher assembles and executes a single job run
type Launcher struct {
	name       string
	factory    PipelineFactory
	recorder   metrics.Recorder
	identities *identityCache
}

func NewLauncher(name string, factory PipelineFactory, recorder metrics.Recorder) *Launcher {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Launcher{
		name:       name,
		factory:    factory,
		recorder:   recorder,
		identities: newIdentityCache(identityCacheSize),
	}
}

func (l *Launcher) Name() string {
	return l.name
}

// RunJob runs the pipeline to completion on the calling goroutine. It always returns a final
// JobRun: errors, including panics raised by the pipeline, are recorded on the run as Failed.
func (l *Launcher) RunJob(ctx context.Context, launchTime time.Time) *models.JobRun {
	run := &models.JobRun{
		ID:         uuid.New().String(),
		JobName:    l.name,
		LaunchTime: launchTime,
		Status:     models.RsRunning,
	}
	params := NewParameters(launchTime)

	log.Info().
		Str("job", l.name).
		Str("run_id", run.ID).
		Str(ParamLaunchDate, params[ParamLaunchDate]).
		Msg("Job launched")

	err := l.execute(ctx, run, params)
	run.EndTime = null.TimeFrom(time.Now())
	if err != nil {
		run.Status = models.RsFailed
		run.Error = null.StringFrom(err.Error())
		log.Error().
			Err(err).
			Str("job", l.name).
			Str("run_id", run.ID).
			Int("chunks_written", run.ChunkCount).
			Msg("Job failed")
	} else {
		run.Status = models.RsCompleted
		log.Info().
			Str("job", l.name).
			Str("run_id", run.ID).
			Int("read_count", run.ReadCount).
			Int("write_count", run.WriteCount).
			Int("chunk_count", run.ChunkCount).
			Dur("duration", run.Duration()).
			Msg("Job completed")
	}

	l.recorder.RecordJob(l.name, run.Status, run.Duration())
	return run
}

func (l *Launcher) execute(ctx context.Context, run *models.JobRun, params Parameters) (err error) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err = fmt.Errorf("job panicked: %v", rcv)
		}
	}()

	if !l.identities.add(params.Identity(l.name)) {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, params[ParamLaunchDate])
	}

	p, err := l.factory(params)
	if err != nil {
		return fmt.Errorf("could not build pipeline: %w", err)
	}

	stats, err := p.Run(ctx)
	run.ReadCount = stats.ReadCount
	run.WriteCount = stats.WriteCount
	run.ChunkCount = stats.ChunkCount
	return err
}
