package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLogger tests the creation of a new JSON logger
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "default log level (info)", logLevel: ""},
		{name: "debug log level", logLevel: "debug"},
		{name: "invalid log level defaults to info", logLevel: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			logger := NewLogger()
			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

// TestNewTextLogger tests the creation of a new text logger
func TestNewTextLogger(t *testing.T) {
	logger := NewTextLogger()
	assert.NotNil(t, logger, "logger should not be nil")

	t.Setenv("LOG_LEVEL", "debug")
	logger = NewTextLogger()
	assert.NotNil(t, logger, "debug logger should not be nil")
}

// TestLogger_LogLevels tests logging at different levels
func TestLogger_LogLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*slog.Logger, string)
		message string
		level   string
	}{
		{
			name:    "info level logging",
			logFunc: func(l *slog.Logger, m string) { l.Info(m) },
			message: "test info message",
			level:   "INFO",
		},
		{
			name:    "debug level logging when enabled",
			logFunc: func(l *slog.Logger, m string) { l.Debug(m) },
			message: "test debug message",
			level:   "DEBUG",
		},
		{
			name:    "warn level logging",
			logFunc: func(l *slog.Logger, m string) { l.Warn(m) },
			message: "test warn message",
			level:   "WARN",
		},
		{
			name:    "error level logging",
			logFunc: func(l *slog.Logger, m string) { l.Error(m) },
			message: "test error message",
			level:   "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})
			logger := slog.New(handler)

			tt.logFunc(logger, tt.message)

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")
			assert.Equal(t, tt.message, logEntry["msg"], "JSON should contain correct message")
			assert.Equal(t, tt.level, logEntry["level"], "JSON should contain correct level")
			assert.NotEmpty(t, logEntry["time"], "JSON should contain timestamp")
		})
	}
}

// TestLogger_DebugLevelFiltering tests that debug messages are filtered when not enabled
func TestLogger_DebugLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	output := buf.String()
	assert.NotContains(t, output, "this should not appear", "debug message should be filtered")
	assert.Contains(t, output, "this should appear", "info message should be logged")
}

// TestWithFeed tests scoping a logger to one guild feed
func TestWithFeed(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	baseLogger := slog.New(handler)

	logger := WithFeed(baseLogger, "guild-42", "https://example.com/feed.xml")
	logger.Info("checking feed")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err, "output should be valid JSON")
	assert.Equal(t, "guild-42", logEntry["guild_id"])
	assert.Equal(t, "https://example.com/feed.xml", logEntry["feed"])
}

// TestWithFields tests adding structured fields to logger
func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{
			name: "single string field",
			fields: map[string]interface{}{
				"channel_id": "123456",
			},
		},
		{
			name: "multiple mixed fields",
			fields: map[string]interface{}{
				"guild_id":  "guild-456",
				"operation": "gallery_sync",
				"posts":     3,
				"backfill":  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			baseLogger := slog.New(handler)

			logger := WithFields(baseLogger, tt.fields)
			logger.Info("test message")

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")

			for key, expectedValue := range tt.fields {
				assert.Contains(t, logEntry, key, "output should contain field: %s", key)
				switch v := expectedValue.(type) {
				case int:
					assert.Equal(t, float64(v), logEntry[key], "field %s should match", key)
				default:
					assert.Equal(t, v, logEntry[key], "field %s should match", key)
				}
			}
		})
	}
}

// TestFromContext tests retrieving logger from context
func TestFromContext(t *testing.T) {
	t.Run("with logger in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		ctx := WithLogger(context.Background(), logger)

		retrieved := FromContext(ctx)
		require.NotNil(t, retrieved)
		retrieved.Info("context test")
		assert.Contains(t, buf.String(), "context test", "should use the logger from context")
	})

	t.Run("without logger in context", func(t *testing.T) {
		logger := FromContext(context.Background())
		assert.Equal(t, slog.Default(), logger, "should be default logger")
	})

	t.Run("with invalid value in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), loggerContextKey, "not a logger")
		logger := FromContext(ctx)
		assert.Equal(t, slog.Default(), logger, "should be default logger")
	})
}

// TestLogger_MultipleLogEntries tests logging multiple entries
func TestLogger_MultipleLogEntries(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Info("first message")
	logger.Warn("second message")
	logger.Error("third message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines), "should have 3 log entries")

	for i, line := range lines {
		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(line), &logEntry)
		require.NoError(t, err, "line %d should be valid JSON", i+1)
		assert.NotEmpty(t, logEntry["msg"], "line %d should have message", i+1)
		assert.NotEmpty(t, logEntry["level"], "line %d should have level", i+1)
	}
}

// BenchmarkLogger_Info benchmarks Info level logging
func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}
