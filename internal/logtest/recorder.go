// Package logtest provides a recording [types.Logger] for tests.
package logtest

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/slackmgr/types"
)

// Entry is a single recorded log line.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type sink struct {
	mu      sync.Mutex
	entries []Entry
}

// Recorder is a [types.Logger] that keeps every line in memory. Loggers
// derived with WithField share the parent's storage.
type Recorder struct {
	sink   *sink
	fields map[string]any
}

var _ types.Logger = (*Recorder)(nil)

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{sink: &sink{}, fields: map[string]any{}}
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()

	out := make([]Entry, len(r.sink.entries))
	copy(out, r.sink.entries)

	return out
}

// Count returns the number of entries at level whose message contains substr.
func (r *Recorder) Count(level, substr string) int {
	n := 0

	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}

	return n
}

//nolint:ireturn // Must return interface to implement types.Logger
func (r *Recorder) WithField(key string, value any) types.Logger {
	fields := maps.Clone(r.fields)
	fields[key] = value

	return &Recorder{sink: r.sink, fields: fields}
}

//nolint:ireturn // Must return interface to implement types.Logger
func (r *Recorder) WithFields(f map[string]any) types.Logger {
	fields := maps.Clone(r.fields)
	maps.Copy(fields, f)

	return &Recorder{sink: r.sink, fields: fields}
}

func (r *Recorder) Debug(msg string) {
	r.record("debug", msg)
}

func (r *Recorder) Debugf(format string, a ...any) {
	r.record("debug", fmt.Sprintf(format, a...))
}

func (r *Recorder) Info(msg string) {
	r.record("info", msg)
}

func (r *Recorder) Infof(format string, a ...any) {
	r.record("info", fmt.Sprintf(format, a...))
}

func (r *Recorder) Error(msg string) {
	r.record("error", msg)
}

func (r *Recorder) Errorf(format string, a ...any) {
	r.record("error", fmt.Sprintf(format, a...))
}

func (r *Recorder) record(level, msg string) {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()

	r.sink.entries = append(r.sink.entries, Entry{Level: level, Message: msg, Fields: maps.Clone(r.fields)})
}
