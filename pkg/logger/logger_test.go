package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{name: "debug", level: "debug", want: slog.LevelDebug},
		{name: "upper case warn", level: "WARN", want: slog.LevelWarn},
		{name: "warning alias", level: "warning", want: slog.LevelWarn},
		{name: "padded error", level: "  error ", want: slog.LevelError},
		{name: "info", level: "info", want: slog.LevelInfo},
		{name: "empty", level: "", want: slog.LevelInfo},
		{name: "unknown", level: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.level))
		})
	}
}

func TestStructuredLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewStructuredLoggerTo(&buf, "docsite", "v1.2.3", "info")
	l.Debug("hidden")
	l.Info("rendered", "anchor", "home")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rendered", rec["msg"])
	assert.Equal(t, "docsite", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "home", rec["anchor"])
	assert.NotContains(t, rec, "source")
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := Discard()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
