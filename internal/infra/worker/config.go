package worker

import (
	"fmt"
	"log/slog"
	"time"

	"guildsync/internal/pkg/config"
)

// WorkerConfig holds the configuration for the sync worker: the cron
// schedules for the two feed kinds, the timezone they are evaluated in,
// the timeout budgets, and the ops server port.
//
// Configuration is loaded from environment variables via LoadConfigFromEnv
// with a fail-open strategy: an invalid value falls back to its default
// with a warning instead of refusing to start. A worker running on default
// cadence beats a worker that is down.
type WorkerConfig struct {
	// RSSCronSchedule is the cron expression for RSS sync passes.
	// Default: "*/5 * * * *" (every 5 minutes). Per-feed intervals gate
	// the actual fetches, so the pass itself can run frequently.
	RSSCronSchedule string

	// GalleryCronSchedule is the cron expression for gallery sync passes.
	// Default: "* * * * *" (every minute). Gallery feeds support short
	// intervals, so the pass cadence must be at least that fine.
	GalleryCronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "UTC"
	Timezone string

	// SyncTimeout caps one whole sync pass across all guilds.
	// Default: 10 minutes
	SyncTimeout time.Duration

	// FeedTimeout caps the fetch-extract-enrich-publish pipeline for a
	// single feed within a pass.
	// Default: 2 minutes
	FeedTimeout time.Duration

	// OpsPort is the port for the ops HTTP server (health, metrics,
	// manual gallery checks).
	// Range: 1024-65535. Default: 9091
	OpsPort int
}

// DefaultConfig returns a WorkerConfig with production defaults: minutely
// gallery passes, 5-minutely RSS passes, UTC scheduling, and the usual
// Prometheus exporter port for the ops server.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		RSSCronSchedule:     "*/5 * * * *",
		GalleryCronSchedule: "* * * * *",
		Timezone:            "UTC",
		SyncTimeout:         10 * time.Minute,
		FeedTimeout:         2 * time.Minute,
		OpsPort:             9091,
	}
}

// Validate checks the configuration values using the shared validators.
// All failures are collected and returned together so a bad deploy shows
// every problem at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.RSSCronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("rss cron schedule: %w", err))
	}
	if err := config.ValidateCronSchedule(c.GalleryCronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("gallery cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.SyncTimeout); err != nil {
		errs = append(errs, fmt.Errorf("sync timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.FeedTimeout); err != nil {
		errs = append(errs, fmt.Errorf("feed timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.OpsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("ops port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to defaults on failure.
//
// Environment variables:
//   - RSS_CRON_SCHEDULE: Cron expression (default: "*/5 * * * *")
//   - GALLERY_CRON_SCHEDULE: Cron expression (default: "* * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - SYNC_TIMEOUT: Duration string, e.g. "10m" (range: 1m-1h)
//   - FEED_TIMEOUT: Duration string, e.g. "2m" (range: 10s-10m)
//   - WORKER_OPS_PORT: Integer 1024-65535 (default: 9091)
//
// Never returns an error: every invalid value is replaced by its default,
// logged, and counted in the config metrics.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	fallback := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("RSS_CRON_SCHEDULE", cfg.RSSCronSchedule, config.ValidateCronSchedule)
	cfg.RSSCronSchedule = result.Value.(string)
	fallback("rss_cron_schedule", result)

	result = config.LoadEnvWithFallback("GALLERY_CRON_SCHEDULE", cfg.GalleryCronSchedule, config.ValidateCronSchedule)
	cfg.GalleryCronSchedule = result.Value.(string)
	fallback("gallery_cron_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	fallback("timezone", result)

	result = config.LoadEnvDuration("SYNC_TIMEOUT", cfg.SyncTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 1*time.Hour)
	})
	cfg.SyncTimeout = result.Value.(time.Duration)
	fallback("sync_timeout", result)

	result = config.LoadEnvDuration("FEED_TIMEOUT", cfg.FeedTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, 10*time.Minute)
	})
	cfg.FeedTimeout = result.Value.(time.Duration)
	fallback("feed_timeout", result)

	result = config.LoadEnvInt("WORKER_OPS_PORT", cfg.OpsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.OpsPort = result.Value.(int)
	fallback("ops_port", result)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
