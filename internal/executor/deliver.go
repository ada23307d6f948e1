package executor

import "time"

// Delivery is a single asynchronous write.
type Delivery struct {
	// Send performs the write. It runs on a pool goroutine.
	Send func() error

	// Message prefixes the error logged when Send fails.
	Message string

	// OnSuccess and OnError are optional completion hooks.
	OnSuccess func()
	OnError   func(error)
}

// Deliver submits d to the pool. When wait is true it then blocks until the
// write completes or timeout elapses; running out of time is logged, not
// returned. The only error is a failed submission.
func (p *Pool) Deliver(d Delivery, wait bool, timeout time.Duration) error {
	count := 0
	if wait {
		count = 1
	}

	latch := NewLatch(count)
	callback := NewCallback(p.logger, latch, d.Message, d.OnSuccess, d.OnError)

	if err := p.Submit(func() { callback.Complete(d.Send()) }); err != nil {
		return err
	}

	AwaitLatch(p.logger, latch, timeout)

	return nil
}
