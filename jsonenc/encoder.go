// Package jsonenc encodes [appender.Event] values as flat JSON documents.
//
// The document layout is controlled by [FieldNames]; any field whose name is
// empty is left out. Event attributes are written as a nested object, with
// slog groups becoming nested objects of their own.
package jsonenc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/slackmgr/appenders/appender"
)

// TimestampLayout renders timestamps as yyyy-MM-dd'T'HH:mm:ss.SSSZ, for
// example 2024-01-15T12:00:00.123+0200.
const TimestampLayout = "2006-01-02T15:04:05.000-0700"

// FieldNames names the top-level fields of the document.
type FieldNames struct {
	Timestamp  string
	Level      string
	LevelValue string
	Logger     string
	Message    string
	Source     string
	Attributes string
}

// DefaultFieldNames returns lower camel case field names.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Timestamp:  "timestamp",
		Level:      "level",
		LevelValue: "levelValue",
		Logger:     "logger",
		Message:    "message",
		Source:     "source",
		Attributes: "attributes",
	}
}

// CapitalizingFieldNames returns the default field names with their first
// letter upper cased, matching the attribute naming convention of DynamoDB
// tables.
func CapitalizingFieldNames() FieldNames {
	n := DefaultFieldNames()

	return FieldNames{
		Timestamp:  capitalize(n.Timestamp),
		Level:      capitalize(n.Level),
		LevelValue: capitalize(n.LevelValue),
		Logger:     capitalize(n.Logger),
		Message:    capitalize(n.Message),
		Source:     capitalize(n.Source),
		Attributes: capitalize(n.Attributes),
	}
}

// Option configures an [Encoder].
type Option func(*Encoder)

// WithFieldNames sets the document field names. Default: [DefaultFieldNames].
func WithFieldNames(names FieldNames) Option {
	return func(e *Encoder) {
		e.fieldNames = names
	}
}

// WithTimestampLayout sets the [time.Layout] used for the timestamp field and
// for time-valued attributes. An empty layout writes the timestamp as Unix
// milliseconds. Default: empty.
func WithTimestampLayout(layout string) Option {
	return func(e *Encoder) {
		e.layout = layout
	}
}

// WithLocation converts timestamps to loc before formatting. By default the
// event's own location is kept.
func WithLocation(loc *time.Location) Option {
	return func(e *Encoder) {
		e.location = loc
	}
}

// Encoder implements [appender.Encoder] for [appender.Event].
type Encoder struct {
	fieldNames FieldNames
	layout     string
	location   *time.Location
}

// New creates an Encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{fieldNames: DefaultFieldNames()}

	for _, o := range opts {
		o(e)
	}

	return e
}

// Encode renders event as a JSON object.
func (e *Encoder) Encode(event appender.Event) ([]byte, error) {
	doc := make(map[string]any, 7)
	names := e.fieldNames

	if !event.Time.IsZero() {
		put(doc, names.Timestamp, e.timestamp(event.Time))
	}

	put(doc, names.Level, event.Level.String())
	put(doc, names.LevelValue, int(event.Level))
	put(doc, names.Message, event.Message)

	if event.LoggerName != "" {
		put(doc, names.Logger, event.LoggerName)
	}

	if event.Source != nil {
		put(doc, names.Source, map[string]any{
			"function": event.Source.Function,
			"file":     event.Source.File,
			"line":     event.Source.Line,
		})
	}

	if len(event.Attrs) > 0 {
		attrs := make(map[string]any, len(event.Attrs))
		e.addAttrs(attrs, event.Attrs)

		if len(attrs) > 0 {
			put(doc, names.Attributes, attrs)
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal logging event: %w", err)
	}

	return b, nil
}

func (e *Encoder) timestamp(t time.Time) any {
	if e.layout == "" {
		return t.UnixMilli()
	}

	if e.location != nil {
		t = t.In(e.location)
	}

	return t.Format(e.layout)
}

func (e *Encoder) addAttrs(dst map[string]any, attrs []slog.Attr) {
	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Equal(slog.Attr{}) {
			continue
		}

		if a.Value.Kind() != slog.KindGroup {
			dst[a.Key] = e.value(a.Value)
			continue
		}

		group := a.Value.Group()
		if len(group) == 0 {
			continue
		}

		// Inline groups without a key, as slog does.
		if a.Key == "" {
			e.addAttrs(dst, group)
			continue
		}

		nested, ok := dst[a.Key].(map[string]any)
		if !ok {
			nested = make(map[string]any, len(group))
			dst[a.Key] = nested
		}

		e.addAttrs(nested, group)
	}
}

func (e *Encoder) value(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return e.timestamp(v.Time())
	case slog.KindGroup:
		m := map[string]any{}
		e.addAttrs(m, v.Group())
		return m
	default:
		return anyValue(v.Any())
	}
}

func anyValue(a any) any {
	switch x := a.(type) {
	case nil:
		return nil
	case error:
		return x.Error()
	case json.Marshaler:
		return x
	case fmt.Stringer:
		return x.String()
	}

	if _, err := json.Marshal(a); err != nil {
		return fmt.Sprintf("%+v", a)
	}

	return a
}

func put(doc map[string]any, name string, value any) {
	if name != "" {
		doc[name] = value
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
