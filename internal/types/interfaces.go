package types

import (
	"log/slog"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used across packages.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger wraps l. A nil l falls back to slog.Default().
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Info(msg string, args ...any)  { s.L.Info(msg, args...) }
func (s SlogLogger) Error(msg string, args ...any) { s.L.Error(msg, args...) }
func (s SlogLogger) Warn(msg string, args ...any)  { s.L.Warn(msg, args...) }

// With returns a child logger carrying args on every record.
func (s SlogLogger) With(args ...any) Logger { return SlogLogger{L: s.L.With(args...)} }
