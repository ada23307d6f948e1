package appender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/slackmgr/types"
)

var (
	// ErrNotStarted is returned by Append when the appender is not started.
	ErrNotStarted = errors.New("appender is not started")

	// ErrPayloadTooLarge is returned by Append when the encoded event exceeds
	// the maximum payload size. The event is dropped.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

	// ErrNoEncoder is returned by Start when no encoder has been configured.
	ErrNoEncoder = errors.New("no encoder configured")
)

// Encoder turns an event into bytes.
type Encoder[E any] interface {
	Encode(event E) ([]byte, error)
}

// Writer transmits encoded payloads to a remote store. Start and Stop are
// called by the owning [Appender] exactly once per lifecycle transition;
// Write may be called concurrently between them.
type Writer[E any] interface {
	// Start opens the remote client. An error aborts the appender start.
	Start(ctx context.Context) error

	// Stop drains in-flight writes, best-effort, and releases the client.
	Stop(ctx context.Context) error

	// Write transmits one payload. The event is only used for diagnostics.
	Write(ctx context.Context, event E, payload string) error
}

// Option configures an [Appender].
type Option[E any] func(*Appender[E])

// WithEncoder sets the event encoder.
func WithEncoder[E any](enc Encoder[E]) Option[E] {
	return func(a *Appender[E]) {
		a.encoder = enc
	}
}

// WithConverter sets the payload converter. Defaults to a UTF-8
// [StringConverter].
func WithConverter[E any](c Converter) Option[E] {
	return func(a *Appender[E]) {
		a.converter = c
	}
}

// WithMaxPayloadSize sets the maximum payload size in bytes. Zero disables
// the limit.
func WithMaxPayloadSize[E any](n int) Option[E] {
	return func(a *Appender[E]) {
		a.maxPayloadSize = n
	}
}

// Appender is the generic encode-then-transmit pipeline. It is safe for
// concurrent use; Append calls may race with Stop, in which case the
// Writer reports the failure.
type Appender[E any] struct {
	name           string
	writer         Writer[E]
	logger         types.Logger
	encoder        Encoder[E]
	converter      Converter
	maxPayloadSize int
	mu             sync.Mutex
	started        atomic.Bool
	counters       Counters
}

// New creates a stopped appender named name that transmits through writer.
func New[E any](name string, writer Writer[E], logger types.Logger, opts ...Option[E]) *Appender[E] {
	a := &Appender[E]{
		name:   name,
		writer: writer,
		logger: LoggerOrDefault(logger).WithField("appender", name),
	}

	for _, o := range opts {
		o(a)
	}

	return a
}

// Name returns the appender name.
func (a *Appender[E]) Name() string {
	return a.name
}

// Logger returns the diagnostic logger, enriched with the appender name.
//
//nolint:ireturn // types.Logger is the logging contract
func (a *Appender[E]) Logger() types.Logger {
	return a.logger
}

// Counters returns the appender's counters, for writers to record outcomes.
func (a *Appender[E]) Counters() *Counters {
	return &a.counters
}

// Stats returns a snapshot of the appender's counters.
func (a *Appender[E]) Stats() Stats {
	return a.counters.Snapshot()
}

// IsStarted reports whether the appender is started.
func (a *Appender[E]) IsStarted() bool {
	return a.started.Load()
}

// SetDefaultEncoder installs enc unless an encoder is already configured.
func (a *Appender[E]) SetDefaultEncoder(enc Encoder[E]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder == nil {
		a.encoder = enc
	}
}

// SetConverter replaces the payload converter. It has no effect on a started
// appender.
func (a *Appender[E]) SetConverter(c Converter) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started.Load() {
		a.converter = c
	}
}

// Start validates the configuration and starts the writer. Calling Start on a
// started appender is a no-op.
func (a *Appender[E]) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started.Load() {
		return nil
	}

	if a.writer == nil {
		return fmt.Errorf("appender '%s': no writer configured", a.name)
	}

	if a.encoder == nil {
		return fmt.Errorf("appender '%s': %w", a.name, ErrNoEncoder)
	}

	if a.maxPayloadSize < 0 {
		return fmt.Errorf("appender '%s': max payload size must not be negative", a.name)
	}

	if a.converter == nil {
		a.converter = StringConverter{}
	}

	if v, ok := a.converter.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("appender '%s': invalid converter: %w", a.name, err)
		}
	}

	if err := a.writer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start appender '%s': %w", a.name, err)
	}

	a.started.Store(true)

	a.logger.Info("Appender started")

	return nil
}

// Stop stops the writer. Stopping an appender that is not started, including
// one whose Start failed, is a no-op.
func (a *Appender[E]) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started.Swap(false) {
		return nil
	}

	if err := a.writer.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop appender '%s': %w", a.name, err)
	}

	a.logger.Info("Appender stopped")

	return nil
}

// Append encodes event and hands it to the writer. Encoding and submission
// errors are returned; failures of the remote write itself are reported
// asynchronously by the writer.
func (a *Appender[E]) Append(ctx context.Context, event E) error {
	if !a.started.Load() {
		return ErrNotStarted
	}

	a.counters.IncAppended()

	encoded, err := a.encoder.Encode(event)
	if err != nil {
		a.counters.IncDropped()
		a.logger.Errorf("Appender '%s' failed to encode logging event '%v': %v", a.name, event, err)
		return fmt.Errorf("failed to encode logging event: %w", err)
	}

	payload, err := a.converter.Convert(encoded)
	if err != nil {
		a.counters.IncDropped()
		a.logger.Errorf("Appender '%s' failed to convert logging event '%v': %v", a.name, event, err)
		return fmt.Errorf("failed to convert logging event: %w", err)
	}

	if a.maxPayloadSize > 0 && len(payload) > a.maxPayloadSize {
		a.counters.IncDropped()
		a.logger.
			WithField("payload_size", len(payload)).
			Errorf("Appender '%s' dropped logging event '%v' exceeding the maximum payload size of %d bytes", a.name, event, a.maxPayloadSize)
		return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), a.maxPayloadSize)
	}

	if err := a.writer.Write(ctx, event, payload); err != nil {
		a.counters.IncDropped()
		a.logger.Errorf("Appender '%s' failed to submit logging event '%v': %v", a.name, event, err)
		return err
	}

	return nil
}
