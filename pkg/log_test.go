package pkg

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapLogger installs a buffer-backed logger for the duration of a test.
func swapLogger(t *testing.T, opts *slog.HandlerOptions) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := DefaultLogger
	t.Cleanup(func() { SetLogger(original) })
	SetLogger(NewLogger(&buf, opts))
	return &buf
}

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	tests := []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLogLevel(tt.level)
			assert.Equal(t, tt.level, GetLogLevel())
		})
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, nil)
	require.NotNil(t, logger)

	logger.Warn("test message")
	assert.Contains(t, buf.String(), `"msg":"test message"`)
}

func TestLogComponents(t *testing.T) {
	buf := swapLogger(t, &slog.HandlerOptions{Level: slog.LevelDebug})

	tests := []struct {
		log       func(Component, string, ...any)
		component Component
		msg       string
	}{
		{LogDebug, ComponentSampler, "debug message"},
		{LogInfo, ComponentConsumer, "info message"},
		{LogWarn, ComponentSink, "warn message"},
		{LogError, ComponentHAL, "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			buf.Reset()
			tt.log(tt.component, tt.msg, "key", "value")
			out := buf.String()
			assert.Contains(t, out, tt.msg)
			assert.Contains(t, out, "component="+string(tt.component))
			assert.Contains(t, out, "key=value")
		})
	}
}

func TestLogLevelFiltersDebug(t *testing.T) {
	buf := swapLogger(t, &slog.HandlerOptions{Level: slog.LevelWarn})

	LogDebug(ComponentQueue, "hidden")
	LogWarn(ComponentQueue, "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetLogFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	original := DefaultLogger
	defer func() {
		SetLogOutput(os.Stderr)
		SetLogger(original)
	}()

	SetLogOutput(&buf)
	SetLogFormat(LogFormatJSON)
	LogError(ComponentPipeline, "json message")

	assert.Contains(t, buf.String(), `"component":"pipeline"`)
	assert.Contains(t, buf.String(), `"msg":"json message"`)
}

// Both formats write to the output chosen by SetLogOutput.
func TestSetLogFormatUsesLogOutput(t *testing.T) {
	original := DefaultLogger
	defer func() {
		SetLogOutput(os.Stderr)
		SetLogger(original)
	}()

	tests := []struct {
		format LogFormat
		want   string
	}{
		{LogFormatText, "component=sink"},
		{LogFormatJSON, `"component":"sink"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		SetLogOutput(&buf)
		SetLogFormat(tt.format)
		LogError(ComponentSink, "formatted")
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestNewRotatingWriter(t *testing.T) {
	_, err := NewRotatingWriter(RotationConfig{})
	require.ErrorIs(t, err, ErrInvalidParameter)

	path := filepath.Join(t.TempDir(), "ps2.log")
	w, err := NewRotatingWriter(RotationConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2})
	require.NoError(t, err)

	logger := NewLogger(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger.Info("rotating message")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotating message")
}
