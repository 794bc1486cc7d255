// Package logging builds the structured slog loggers used across the
// worker and carries loggers through contexts.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// levelFromEnv maps LOG_LEVEL to a slog level. Unknown or unset values
// mean info.
func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
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

// NewLogger returns a JSON logger on stdout. Source locations are attached
// when the level is verbose enough that the extra cost does not matter.
func NewLogger() *slog.Logger {
	level := levelFromEnv()
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
}

// NewTextLogger returns a human-readable logger for local runs of the
// worker and the diagnostic scripts.
func NewTextLogger() *slog.Logger {
	level := levelFromEnv()
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
}

// WithFeed returns a logger scoped to one feed of one guild. Every log line
// emitted during a feed tick carries these two fields so failures can be
// traced back to the exact feed configuration.
func WithFeed(logger *slog.Logger, guildID, feedRef string) *slog.Logger {
	return logger.With(
		slog.String("guild_id", guildID),
		slog.String("feed", feedRef),
	)
}

// WithFields returns a logger with the given key-value pairs attached.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

type contextKey string

const loggerContextKey contextKey = "logger"

// FromContext returns the logger stored in ctx, or slog.Default when none
// was stored.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in the context for FromContext to find.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}
