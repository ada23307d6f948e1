package postgres

import (
	"context"
	"fmt"

	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/jsonenc"
	"github.com/slackmgr/types"
)

// Appender inserts log events into a Postgres table, one row per event.
type Appender struct {
	base   *appender.Appender[appender.Event]
	client *client
	opts   *options
}

// New creates a stopped Appender. A nil logger logs diagnostics to stderr.
func New(logger types.Logger, opts ...Option) *Appender {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger = appender.LoggerOrDefault(logger).
		WithField("plugin", "postgres").
		WithField("table", o.table)

	c := &client{opts: o}

	base := appender.New(o.name, appender.Writer[appender.Event](c), logger,
		appender.WithEncoder(o.encoder),
		appender.WithMaxPayloadSize[appender.Event](o.maxPayloadSize),
	)

	c.logger = base.Logger()
	c.counters = base.Counters()

	return &Appender{base: base, client: c, opts: o}
}

// Start validates the options, connects and prepares the table.
func (a *Appender) Start(ctx context.Context) error {
	if err := a.opts.validate(); err != nil {
		return fmt.Errorf("invalid Postgres db configuration: %w", err)
	}

	a.base.SetDefaultEncoder(jsonenc.New(jsonenc.WithTimestampLayout(jsonenc.TimestampLayout)))

	return a.base.Start(ctx)
}

// Stop waits up to the max flush time for outstanding inserts, stops the TTL
// cleanup and closes the connection pool.
func (a *Appender) Stop(ctx context.Context) error {
	return a.base.Stop(ctx)
}

// Append inserts event into the table.
func (a *Appender) Append(ctx context.Context, event appender.Event) error {
	return a.base.Append(ctx, event)
}

// Handler returns a [log/slog] handler that appends to a.
func (a *Appender) Handler(opts *appender.HandlerOptions) *appender.Handler {
	return appender.NewHandler(a, opts)
}

// Stats returns a snapshot of the event counters.
func (a *Appender) Stats() appender.Stats {
	return a.base.Stats()
}

// Table returns the name of the log events table.
func (a *Appender) Table() string {
	return a.opts.table
}
