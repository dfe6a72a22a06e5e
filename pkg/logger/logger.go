package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvVarLogLevel is the environment variable name for setting the log level.
	EnvVarLogLevel = "LOG_LEVEL"
)

type ctxKey struct{}

// NewStructuredLogger creates a JSON logger writing to stderr at the given level.
// Every record carries the module name and version of the running binary.
// Source locations are only added at debug level.
//
// Parameters:
//   - module: The name of the application (e.g., "docsite").
//   - version: The version of the application (e.g., "v1.0.0").
//   - level: The log level as a string (e.g., "debug", "info", "warn", "error").
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return NewStructuredLoggerTo(os.Stderr, module, version, level)
}

// NewStructuredLoggerTo is NewStructuredLogger with an explicit output.
func NewStructuredLoggerTo(w io.Writer, module, version, level string) *slog.Logger {
	lev := ParseLogLevel(level)

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lev,
		AddSource: lev <= slog.LevelDebug,
	})).With("module", module, "version", version)
}

// NewLogLogger returns a standard library logger backed by a slog text
// handler, for components such as http.Server that only accept *log.Logger.
func NewLogLogger(level slog.Level) *log.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	return slog.NewLogLogger(handler, level)
}

// SetDefaultLogger installs the structured logger as the slog default.
// The level is read from the LOG_LEVEL environment variable.
func SetDefaultLogger(module, version string) {
	SetDefaultLoggerWithLevel(module, version, os.Getenv(EnvVarLogLevel))
}

// SetDefaultLoggerWithLevel installs the structured logger with an explicit level.
// A non-empty LOG_LEVEL environment variable takes precedence over level.
func SetDefaultLoggerWithLevel(module, version, level string) {
	if env := os.Getenv(EnvVarLogLevel); env != "" {
		level = env
	}
	slog.SetDefault(NewStructuredLogger(module, version, level))
}

// ParseLogLevel converts a string representation of a log level into a slog.Level.
// Unrecognized values map to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
