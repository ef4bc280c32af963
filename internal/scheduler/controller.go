package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"batchrunner/internal/metrics"
	"batchrunner/internal/models"
	"batchrunner/internal/registry"
	"batchrunner/internal/worker"
)

// JobLauncher runs the batch job to completion and returns the final run
type JobLauncher interface {
	RunJob(ctx context.Context, launchTime time.Time) *models.JobRun
}

// Submitter hands a tick to whatever executes it, usually a worker.Pool
type Submitter interface {
	Submit(task worker.Task) bool
}

// SchedulingFault is a panic raised by a tick outside of the job itself
type SchedulingFault struct {
	Tick  int64
	Cause any
}

func (f *SchedulingFault) Error() string {
	return fmt.Sprintf("tick %d panicked: %v", f.Tick, f.Cause)
}

type ControllerOptions struct {
	Period       time.Duration
	InitialDelay time.Duration
	Enabled      bool
	Recorder     metrics.Recorder
}

// Controller launches the job on every tick while enabled and counts the launches. Stopping the
// controller never stops the trigger: ticks keep firing and are skipped until Start is called.
type Controller struct {
	launcher JobLauncher
	registry *registry.Registry
	recorder metrics.Recorder

	period       time.Duration
	initialDelay time.Duration

	enabled   atomic.Bool
	runCount  atomic.Int64
	tickCount atomic.Int64
}

func NewController(launcher JobLauncher, reg *registry.Registry, opts ControllerOptions) *Controller {
	if opts.Recorder == nil {
		opts.Recorder = metrics.Noop{}
	}
	c := &Controller{
		launcher:     launcher,
		registry:     reg,
		recorder:     opts.Recorder,
		period:       opts.Period,
		initialDelay: opts.InitialDelay,
	}
	c.enabled.Store(opts.Enabled)
	return c
}

// Start enables job launches from the next tick on
func (c *Controller) Start() {
	if c.enabled.CompareAndSwap(false, true) {
		log.Info().Msg("Scheduler enabled")
	}
}

// Stop disables job launches. A tick already past its enabled check runs to completion.
func (c *Controller) Stop() {
	if c.enabled.CompareAndSwap(true, false) {
		log.Info().Msg("Scheduler disabled")
	}
}

func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// RunCount returns the number of job runs launched, whatever their outcome
func (c *Controller) RunCount() int64 {
	return c.runCount.Load()
}

// TickCount returns the number of ticks executed, including skipped ones
func (c *Controller) TickCount() int64 {
	return c.tickCount.Load()
}

// Schedule registers the controller's recurring tick. Each firing is submitted to executor as
// an independent task, so ticks overlap whenever the executor runs more than one at a time.
func (c *Controller) Schedule(ts *TaskScheduler, executor Submitter) error {
	_, err := ts.ScheduleAtFixedRate(c, c.initialDelay, c.period, func() {
		if !executor.Submit(c.OnTick) {
			c.recorder.RecordTick(metrics.TickDropped)
			log.Warn().Msg("Tick dropped, every worker is busy")
		}
	})
	return err
}

// CancelFutureTasks cancels the recurring ticks scheduled by this controller only. It returns
// the number of tasks cancelled.
func (c *Controller) CancelFutureTasks() int {
	return c.registry.CancelAllOwnedBy(registry.OwnedBy(c))
}

// OnTick runs a single tick. Panics are contained here so that a faulty tick never affects the
// following ones.
func (c *Controller) OnTick(ctx context.Context) {
	tick := c.tickCount.Add(1)
	defer func() {
		if rcv := recover(); rcv != nil {
			fault := &SchedulingFault{Tick: tick, Cause: rcv}
			c.recorder.RecordTick(metrics.TickFault)
			log.Error().
				Err(fault).
				Str("stack", string(debug.Stack())).
				Msg("Scheduler tick failed")
		}
	}()
	defer func() {
		log.Debug().Int64("tick", tick).Msg("Scheduler tick ended")
	}()

	launchTime := time.Now()
	log.Debug().
		Time("tick_time", launchTime).
		Int64("tick", tick).
		Msg("Scheduler tick started")

	if !c.enabled.Load() {
		c.recorder.RecordTick(metrics.TickSkipped)
		log.Info().Int64("tick", tick).Msg("Scheduler disabled, job launch skipped")
		return
	}

	run := c.launcher.RunJob(ctx, launchTime)
	runs := c.runCount.Add(1)
	c.recorder.RecordTick(metrics.TickLaunched)

	log.Info().
		Int64("tick", tick).
		Int64("run_count", runs).
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Msg("Batch job ended")
}
