// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Per-feed logger scoping (guild_id + feed fields)
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "guildsync/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func syncFeed(logger *slog.Logger, guildID, feedURL string) {
//	    log := logging.WithFeed(logger, guildID, feedURL)
//	    log.Info("checking feed")
//	}
package logging
