package networkkit

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger is the minimal structured logging interface the pipeline emits
// through. Keys and values alternate in keysAndValues.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ZeroLogger adapts a zerolog.Logger to the Logger interface.
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewZeroLogger creates a zerolog-backed Logger writing to w (os.Stderr when
// nil) at the given level; an unparsable level falls back to info.
func NewZeroLogger(w io.Writer, level string) *ZeroLogger {
	if w == nil {
		w = os.Stderr
	}
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(zLevel)
	return &ZeroLogger{zl: zl}
}

// Debug implements the Logger interface.
func (l *ZeroLogger) Debug(msg string, keysAndValues ...any) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

// Info implements the Logger interface.
func (l *ZeroLogger) Info(msg string, keysAndValues ...any) {
	emit(l.zl.Info(), msg, keysAndValues)
}

// Warn implements the Logger interface.
func (l *ZeroLogger) Warn(msg string, keysAndValues ...any) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

// Error implements the Logger interface.
func (l *ZeroLogger) Error(msg string, keysAndValues ...any) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func emit(ev *zerolog.Event, msg string, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ev = ev.Interface(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	ev.Msg(msg)
}

// noopLogger is the silent default.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DebugConfig gates per-area debug logging so insight does not mean noise.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogCache     bool
	LogTransfers bool
	RequestIDGen func() string
}

// DefaultDebugConfig enables all areas and tags each call with a short
// unique request ID.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		LogTransfers: true,
		RequestIDGen: func() string { return uuid.NewString()[:8] },
	}
}
