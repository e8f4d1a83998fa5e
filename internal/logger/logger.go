package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the leveled key/value logger used across the service.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a text logger writing to stdout at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func New(level string) Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is like New but writes to w.
func NewWithWriter(w io.Writer, level string) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &slogLogger{l: slog.New(h)}
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() Logger {
	return NewWithWriter(io.Discard, "error")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Debug(msg string, keyvals ...any) { s.l.Debug(msg, keyvals...) }
func (s *slogLogger) Info(msg string, keyvals ...any)  { s.l.Info(msg, keyvals...) }
func (s *slogLogger) Warn(msg string, keyvals ...any)  { s.l.Warn(msg, keyvals...) }
func (s *slogLogger) Error(msg string, keyvals ...any) { s.l.Error(msg, keyvals...) }

func (s *slogLogger) With(keyvals ...any) Logger {
	return &slogLogger{l: s.l.With(keyvals...)}
}
