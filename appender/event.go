package appender

import (
	"fmt"
	"log/slog"
	"time"
)

// Event is a single log event as captured from [slog]. Attrs already include
// the attributes and groups bound to the handler that produced the event.
type Event struct {
	Time       time.Time
	Level      slog.Level
	Message    string
	LoggerName string
	Source     *slog.Source
	Attrs      []slog.Attr
}

// String renders the event for diagnostic messages.
func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.Level, e.Message)
}
