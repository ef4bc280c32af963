// Package metrics records scheduler and pipeline activity. Recorder is implemented by the
// Prometheus recorder for the running service and by Noop for tests and one-shot runs.
package metrics

import (
	"time"

	"batchrunner/internal/models"
)

type TickOutcome string

const (
	TickLaunched TickOutcome = "launched" // job was launched and returned
	TickSkipped  TickOutcome = "skipped"  // scheduler disabled
	TickDropped  TickOutcome = "dropped"  // worker pool queue full
	TickFault    TickOutcome = "fault"    // tick panicked outside of the job
)

type Recorder interface {
	RecordTick(outcome TickOutcome)
	RecordJob(jobName string, status models.RunStatus, duration time.Duration)
	RecordChunk(stepName string, size int)
}

// Noop discards everything
type Noop struct{}

func (Noop) RecordTick(TickOutcome) {}

func (Noop) RecordJob(string, models.RunStatus, time.Duration) {}

func (Noop) RecordChunk(string, int) {}

var _ Recorder = Noop{}
