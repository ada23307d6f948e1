package appender

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
)

// Sink receives events from a [Handler].
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// HandlerOptions configures a [Handler].
type HandlerOptions struct {
	// Level is the minimum level handled. Defaults to [slog.LevelInfo].
	Level slog.Leveler

	// AddSource captures the source position of the log call.
	AddSource bool

	// LoggerName is attached to every event, similar to a logger category.
	LoggerName string
}

// Handler is a [slog.Handler] that forwards every enabled record to a [Sink].
type Handler struct {
	sink   Sink
	opts   HandlerOptions
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a handler writing to sink. opts may be nil.
func NewHandler(sink Sink, opts *HandlerOptions) *Handler {
	h := &Handler{sink: sink}

	if opts != nil {
		h.opts = *opts
	}

	return h
}

// Enabled reports whether level meets the configured minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

// Handle converts r to an [Event] and appends it to the sink.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	event := Event{
		Time:       r.Time,
		Level:      r.Level,
		Message:    r.Message,
		LoggerName: h.opts.LoggerName,
		Attrs:      append(slices.Clone(h.attrs), nest(h.groups, attrs)...),
	}

	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		event.Source = &slog.Source{Function: frame.Function, File: frame.File, Line: frame.Line}
	}

	return h.sink.Append(ctx, event)
}

// WithAttrs returns a handler that adds attrs, nested under any open groups,
// to every event.
//
//nolint:ireturn // Required by slog.Handler
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	h2 := h.clone()
	h2.attrs = append(h2.attrs, nest(h.groups, attrs)...)

	return h2
}

// WithGroup returns a handler that nests subsequent attributes under name.
//
//nolint:ireturn // Required by slog.Handler
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := h.clone()
	h2.groups = append(h2.groups, name)

	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		sink:   h.sink,
		opts:   h.opts,
		attrs:  slices.Clip(h.attrs),
		groups: slices.Clip(h.groups),
	}
}

// nest wraps attrs in the given groups, outermost first. Empty groups are
// dropped, as slog requires.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}

	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}
