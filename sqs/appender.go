package sqs

import (
	"context"
	"errors"
	"fmt"

	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/jsonenc"
	"github.com/slackmgr/types"
)

// Appender sends log events to an SQS queue, one message per event.
//
// Create an Appender with [New], then call [Appender.Start] once before
// appending. All methods are safe for concurrent use.
type Appender struct {
	base   *appender.Appender[appender.Event]
	client *client
	opts   *Options
}

// New creates an Appender for the named queue. Standard and FIFO queues are
// both supported; FIFO queues are detected by the ".fifo" name suffix.
//
// Functional options may be passed to override defaults (see With* functions).
// The logger is automatically enriched with "plugin" and "queue_name" fields.
//
// New does not connect to AWS. Call [Appender.Start] to resolve the queue URL.
func New(queueName string, logger types.Logger, opts ...Option) *Appender {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger = appender.LoggerOrDefault(logger).
		WithField("plugin", "sqs").
		WithField("queue_name", queueName)

	c := &client{
		queueName: queueName,
		fifo:      isFifo(queueName),
		opts:      options,
	}

	base := appender.New(options.name, appender.Writer[appender.Event](c), logger,
		appender.WithEncoder(options.encoder),
		appender.WithConverter[appender.Event](appender.StringConverter{Charset: options.charset, Binary: options.binary}),
		appender.WithMaxPayloadSize[appender.Event](options.maxPayloadSize),
	)

	c.logger = base.Logger()
	c.counters = base.Counters()

	return &Appender{
		base:   base,
		client: c,
		opts:   options,
	}
}

// Start validates the options and resolves the queue URL via GetQueueUrl.
// Starting a started Appender is a no-op.
func (a *Appender) Start(ctx context.Context) error {
	if a.client.queueName == "" {
		return errors.New("the SQS queue name must not be empty")
	}

	if err := a.opts.validate(); err != nil {
		return fmt.Errorf("invalid SQS options: %w", err)
	}

	a.base.SetDefaultEncoder(jsonenc.New(jsonenc.WithTimestampLayout(jsonenc.TimestampLayout)))

	return a.base.Start(ctx)
}

// Stop waits up to the max flush time for outstanding messages, then closes
// the queue. Stop is a no-op on an Appender that is not started.
func (a *Appender) Stop(ctx context.Context) error {
	return a.base.Stop(ctx)
}

// Append sends event to the queue.
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

// Name returns the SQS queue name supplied to [New].
func (a *Appender) Name() string {
	return a.client.queueName
}
