package metrics

import "time"

// RecordFeedCheck records one feed check with its outcome and duration.
// Kind is "rss" or "gallery"; result is "success", "failure" or "skipped".
func RecordFeedCheck(kind, result string, duration time.Duration) {
	FeedChecksTotal.WithLabelValues(kind, result).Inc()
	if result != "skipped" {
		FeedCheckDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordFeedSkipped records a feed that was not due yet on this tick.
func RecordFeedSkipped(kind string) {
	FeedChecksTotal.WithLabelValues(kind, "skipped").Inc()
}

// RecordPostsPublished records posts successfully delivered to a channel.
func RecordPostsPublished(kind string, count int) {
	if count > 0 {
		PostsPublishedTotal.WithLabelValues(kind).Add(float64(count))
	}
}

// RecordPublishError records a failed publish attempt.
// errorType is a coarse classification such as "rate_limited", "client", "server".
func RecordPublishError(errorType string) {
	PublishErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordExtractionStrategy records which extraction strategy produced posts
// for a gallery page.
func RecordExtractionStrategy(strategy string) {
	ExtractionStrategyTotal.WithLabelValues(strategy).Inc()
}

// UpdateLedgerSize reflects the current dedup ledger length for a gallery page.
func UpdateLedgerSize(pageID string, size int) {
	LedgerSize.WithLabelValues(pageID).Set(float64(size))
}

// UpdateGuildsTotal updates the count of guilds with configured feeds.
func UpdateGuildsTotal(count int) {
	GuildsTotal.Set(float64(count))
}

// RecordMetadataFetchSuccess records a successful post metadata fetch.
func RecordMetadataFetchSuccess(duration time.Duration) {
	MetadataFetchAttemptsTotal.WithLabelValues("success").Inc()
	MetadataFetchDuration.Observe(duration.Seconds())
}

// RecordMetadataFetchFailed records a failed post metadata fetch.
func RecordMetadataFetchFailed(duration time.Duration) {
	MetadataFetchAttemptsTotal.WithLabelValues("failure").Inc()
	MetadataFetchDuration.Observe(duration.Seconds())
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_guilds", "save_guild").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
