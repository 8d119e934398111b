// Package logger is the structured logging used by the engine's
// tools.  The arithmetic core is pure and log-free; sweeps, corpus
// generation and the CLIs log through here.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger with key-value convenience methods
// and component tagging.
type Logger struct {
	z zerolog.Logger
}

// Log is the process-wide logger; Setup replaces it.
var Log = New(os.Stderr, "INFO", "console")

// New builds a logger writing to w at the given level, either as
// human-readable console lines or as JSON.  The level applies to this
// logger and its children only.
func New(w io.Writer, level, format string) *Logger {
	out := w
	if strings.ToLower(format) != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()
	return &Logger{z: z}
}

// Setup replaces the global logger used by the CLIs.
func Setup(level, format string) {
	Log = New(os.Stderr, level, format)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger whose lines carry the subsystem
// name, so sweep output can be told apart from corpus or transport
// output when the tools interleave.
func (l *Logger) Component(name string) *Logger {
	return &Logger{z: l.z.With().Str("component", name).Logger()}
}

// Info logs at Info level with alternating key-value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	emit(l.z.Info(), msg, kv)
}

// Debug logs at Debug level with alternating key-value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	emit(l.z.Debug(), msg, kv)
}

// Warn logs at Warn level with alternating key-value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	emit(l.z.Warn(), msg, kv)
}

// Error logs at Error level with alternating key-value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	emit(l.z.Error(), msg, kv)
}

func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		e = e.Interface(key, kv[i+1])
	}
	if len(kv)%2 != 0 {
		e = e.Interface("arg", kv[len(kv)-1])
	}
	e.Msg(msg)
}
