package appender

import "sync/atomic"

// FailureHook is called once for every event whose asynchronous write failed.
// It runs on a worker goroutine and must not block.
type FailureHook func(event Event, err error)

// Stats is a snapshot of an appender's counters.
type Stats struct {
	// Appended counts events accepted by Append while started.
	Appended uint64

	// Dropped counts events rejected before transmission: encoding failures,
	// oversized payloads and synchronous submission errors.
	Dropped uint64

	// Sent counts writes confirmed by the remote store.
	Sent uint64

	// Failed counts writes that failed asynchronously.
	Failed uint64
}

// Counters accumulates [Stats]. The zero value is ready to use and safe for
// concurrent use.
type Counters struct {
	appended atomic.Uint64
	dropped  atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
}

func (c *Counters) IncAppended() {
	c.appended.Add(1)
}

func (c *Counters) IncDropped() {
	c.dropped.Add(1)
}

func (c *Counters) IncSent() {
	c.sent.Add(1)
}

func (c *Counters) IncFailed() {
	c.failed.Add(1)
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Stats {
	return Stats{
		Appended: c.appended.Load(),
		Dropped:  c.dropped.Load(),
		Sent:     c.sent.Load(),
		Failed:   c.failed.Load(),
	}
}
