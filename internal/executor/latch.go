package executor

import (
	"sync"
	"time"

	"github.com/slackmgr/types"
)

// Latch is a one-shot countdown latch. It is released when the count reaches
// zero, and stays released forever after.
type Latch struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

// NewLatch returns a latch that is released after count calls to
// [Latch.CountDown]. A latch created with a count of zero or less is released
// immediately.
func NewLatch(count int) *Latch {
	l := &Latch{
		count: max(count, 0),
		done:  make(chan struct{}),
	}

	if l.count == 0 {
		close(l.done)
	}

	return l
}

// CountDown decrements the count, releasing the latch when it reaches zero.
// Calls on a released latch are no-ops.
func (l *Latch) CountDown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return
	}

	l.count--

	if l.count == 0 {
		close(l.done)
	}
}

// Count returns the current count.
func (l *Latch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Done returns a channel that is closed when the latch is released.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Await blocks until the latch is released or timeout elapses, and reports
// whether the latch was released. A non-positive timeout only checks the
// current state.
func (l *Latch) Await(timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-l.done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.done:
		return true
	case <-timer.C:
		return false
	}
}

// AwaitLatch waits on latch for at most timeout. Running out of time is not an
// error; it is only logged.
func AwaitLatch(logger types.Logger, latch *Latch, timeout time.Duration) {
	if latch.Await(timeout) {
		return
	}

	logger.WithField("max_flush_time", timeout).Debugf("Did not receive a response within %s", timeout)
}
