package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Task is a unit of work executed by one of the pool's workers
type Task func(ctx context.Context)

// Pool is a fixed-size set of workers fed from a bounded queue. Submitted tasks run independently
// of each other, so with more than one worker two tasks may run at the same time.
type Pool struct {
	ID string

	size  int
	queue chan Task

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	active  atomic.Int32
	dropped atomic.Uint64
}

// New creates a pool with the given number of workers. queueSize is the number of tasks that may
// wait while every worker is busy. With queueSize 0 a task is only accepted by an idle worker.
func New(size, queueSize int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		ID:    uuid.New().String(),
		size:  size,
		queue: make(chan Task, queueSize),
	}
}

// Start launches the workers. Tasks receive ctx; cancelling it does not stop the workers, use
// Stop for that. Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.size; i++ {
		workerID := fmt.Sprintf("%s-%d", p.ID, i)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.queue {
				p.run(ctx, workerID, task)
			}
		}()
	}

	log.Info().Str("pool_id", p.ID).Int("workers", p.size).Int("queue_size", cap(p.queue)).Msg("Worker pool started")
}

// Submit queues the task without blocking. It returns false if the task was dropped because the
// queue is full or the pool is stopped.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.queue <- task:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// Stop stops accepting tasks and waits until queued and running tasks are done
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	log.Info().Str("pool_id", p.ID).Msg("Worker pool stopped")
}

func (p *Pool) Size() int {
	return p.size
}

// Active returns the number of tasks currently running
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Dropped returns the number of tasks rejected by Submit
func (p *Pool) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *Pool) run(ctx context.Context, workerID string, task Task) {
	p.active.Add(1)
	defer p.active.Add(-1)
	defer func() {
		if rcv := recover(); rcv != nil {
			log.Error().Interface("panic", rcv).Str("worker_id", workerID).Msg("Task panicked")
		}
	}()

	task(ctx)
}
