package dynamodb

import (
	"context"
	"fmt"

	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/jsonenc"
	"github.com/slackmgr/types"
)

// Appender writes log events to a DynamoDB table, one item per event.
//
// Use [New] to create an Appender and [Appender.Start] to open the DynamoDB
// session. Events are appended directly with [Appender.Append], or through
// [log/slog] with [Appender.Handler].
type Appender struct {
	base   *appender.Appender[appender.Event]
	client *client
	opts   *Options
}

// New creates a stopped Appender that writes to tableName in region. region
// may be empty when it is resolved from the environment or supplied with
// [WithAWSConfig]. A nil logger logs diagnostics to stderr.
func New(region, tableName string, logger types.Logger, opts ...Option) *Appender {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger = appender.LoggerOrDefault(logger).
		WithField("plugin", "dynamodb").
		WithField("table", tableName)

	c := &client{
		region:    region,
		tableName: tableName,
		opts:      options,
	}

	base := appender.New(options.name, appender.Writer[appender.Event](c), logger,
		appender.WithEncoder(options.encoder),
		appender.WithConverter[appender.Event](options.stringConverter()),
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

// Start validates the options and opens the DynamoDB session. Starting a
// started Appender is a no-op. Any failure is returned and leaves the
// Appender stopped.
func (a *Appender) Start(ctx context.Context) error {
	if err := a.opts.validate(); err != nil {
		return fmt.Errorf("invalid DynamoDB appender options: %w", err)
	}

	a.base.SetDefaultEncoder(jsonenc.New(
		jsonenc.WithFieldNames(jsonenc.CapitalizingFieldNames()),
		jsonenc.WithTimestampLayout(jsonenc.TimestampLayout),
	))

	return a.base.Start(ctx)
}

// Stop waits up to the max flush time for outstanding writes, then closes the
// session. Writes still running afterwards are abandoned. Stop is a no-op on
// an Appender that is not started.
func (a *Appender) Stop(ctx context.Context) error {
	return a.base.Stop(ctx)
}

// Append writes event to the table. It returns an error if the event cannot
// be encoded or submitted; failures of the PutItem call itself are logged,
// counted in [Appender.Stats] and passed to the failure hook.
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

// IsStarted reports whether the Appender is started.
func (a *Appender) IsStarted() bool {
	return a.base.IsStarted()
}

// Name returns the appender name.
func (a *Appender) Name() string {
	return a.opts.name
}

// Table returns the DynamoDB table name.
func (a *Appender) Table() string {
	return a.client.tableName
}

// PrimaryKey returns the attribute that receives the generated item ID.
func (a *Appender) PrimaryKey() string {
	return a.opts.primaryKey
}
