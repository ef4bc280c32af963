package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"batchrunner/internal/registry"
)

// TaskScheduler fires recurring tasks at a fixed rate. Every task it schedules is registered
// with the Registry under the task's owner, which is the only way to cancel it.
type TaskScheduler struct {
	cron     *cron.Cron
	registry *registry.Registry

	mu        sync.Mutex
	isRunning bool
}

// NewTaskScheduler creates a new scheduler service
func NewTaskScheduler(reg *registry.Registry) *TaskScheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
	)

	return &TaskScheduler{
		cron:     c,
		registry: reg,
	}
}

// Start begins firing scheduled tasks. Tasks may be scheduled before or after Start.
func (s *TaskScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}

	s.isRunning = true
	s.cron.Start()
	log.Info().Int("tasks", len(s.cron.Entries())).Msg("Task scheduler started")
}

// Stop stops firing tasks. The returned context is done once every task fired so far has
// returned.
func (s *TaskScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.isRunning = false
	log.Info().Msg("Task scheduler stopping")
	return s.cron.Stop()
}

// ScheduleAtFixedRate fires task every period, the first time at now + initialDelay + period.
// The handle is registered under owner, which must be a pointer.
func (s *TaskScheduler) ScheduleAtFixedRate(owner any, initialDelay, period time.Duration, task func()) (registry.Handle, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if initialDelay < 0 {
		initialDelay = 0
	}

	schedule := NewFixedRate(time.Now().Add(initialDelay), period)
	entryID := s.cron.Schedule(schedule, cron.FuncJob(task))
	handle := &entryHandle{cron: s.cron, entryID: entryID}

	if err := s.registry.Register(owner, handle); err != nil {
		s.cron.Remove(entryID)
		return nil, err
	}

	log.Debug().
		Int("entry_id", int(entryID)).
		Dur("period", period).
		Dur("initial_delay", initialDelay).
		Msg("Recurring task scheduled")
	return handle, nil
}

// TaskCount returns the number of tasks still firing
func (s *TaskScheduler) TaskCount() int {
	return len(s.cron.Entries())
}

// entryHandle removes a cron entry. Removal only prevents future firings; a firing already
// handed to its goroutine runs to completion.
type entryHandle struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	cancelled atomic.Bool
}

func (h *entryHandle) Cancel() bool {
	if !h.cancelled.CompareAndSwap(false, true) {
		return false
	}
	h.cron.Remove(h.entryID)
	return true
}

// cronLogger forwards the cron library's logs to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Trace().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
