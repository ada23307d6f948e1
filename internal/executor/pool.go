// Package executor provides the worker pool, completion latch and completion
// callback shared by all appenders in this module.
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slackmgr/types"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by [Pool.Submit] once [Pool.Shutdown] has been called.
var ErrPoolClosed = errors.New("executor: pool is shut down")

// Pool runs submitted tasks on background goroutines, with at most size tasks
// running at any one time. Submission never blocks: tasks beyond the limit
// queue up until a slot is released.
type Pool struct {
	name     string
	size     int
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	inFlight atomic.Int64
	logger   types.Logger
}

// NewPool creates a pool allowing size concurrent tasks. A size below 1 is
// treated as 1.
func NewPool(name string, size int, logger types.Logger) *Pool {
	size = max(size, 1)

	return &Pool{
		name:   name,
		size:   size,
		sem:    semaphore.NewWeighted(int64(size)),
		logger: logger.WithField("pool", name).WithField("pool_size", size),
	}
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int {
	return p.size
}

// InFlight returns the number of tasks that are queued or running.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Submit schedules task for execution. It returns [ErrPoolClosed] if the pool
// has been shut down.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.inFlight.Add(1)

	p.wg.Go(func() {
		defer p.inFlight.Add(-1)

		// Acquire cannot fail with a context that is never cancelled.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)

		task()
	})

	return nil
}

// Shutdown stops the pool from accepting new tasks and waits up to timeout
// for queued and running tasks to finish. It returns false if the timeout
// elapsed first. Remaining tasks are not cancelled; they are abandoned and
// may still complete later.
//
// Shutdown is idempotent.
func (p *Pool) Shutdown(timeout time.Duration) bool {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		if p.InFlight() == 0 {
			return true
		}

		select {
		case <-done:
			return true
		default:
			p.logger.WithField("in_flight", p.InFlight()).Error("Pool shut down with tasks still in flight")
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Debug("Pool drained")
		return true
	case <-timer.C:
		p.logger.
			WithField("in_flight", p.InFlight()).
			WithField("max_flush_time", timeout).
			Errorf("Pool %s did not drain within %s, abandoning remaining tasks", p.name, timeout)
		return false
	}
}
