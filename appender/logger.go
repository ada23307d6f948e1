package appender

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/slackmgr/types"
)

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts l to [types.Logger]. A nil l logs text to stderr.
//
//nolint:ireturn // types.Logger is the logging contract
func NewSlogLogger(l *slog.Logger) types.Logger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	return &slogLogger{logger: l}
}

// LoggerOrDefault returns l, or a stderr logger when l is nil.
//
//nolint:ireturn // types.Logger is the logging contract
func LoggerOrDefault(l types.Logger) types.Logger {
	if l == nil {
		return NewSlogLogger(nil)
	}

	return l
}

//nolint:ireturn // Must return interface to implement types.Logger
func (s *slogLogger) WithField(key string, value any) types.Logger {
	return &slogLogger{logger: s.logger.With(key, value)}
}

//nolint:ireturn // Must return interface to implement types.Logger
func (s *slogLogger) WithFields(fields map[string]any) types.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return &slogLogger{logger: s.logger.With(args...)}
}

func (s *slogLogger) Debug(msg string) {
	s.logger.Debug(msg)
}

func (s *slogLogger) Debugf(format string, args ...any) {
	s.logger.Debug(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Info(msg string) {
	s.logger.Info(msg)
}

func (s *slogLogger) Infof(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Error(msg string) {
	s.logger.Error(msg)
}

func (s *slogLogger) Errorf(format string, args ...any) {
	s.logger.Error(fmt.Sprintf(format, args...))
}
