// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track requests against the ops endpoint (health, metrics,
// manual gallery tests)
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Feed synchronization metrics
var (
	// GuildsTotal tracks the number of guilds with at least one configured feed
	GuildsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guilds_total",
			Help: "Number of guilds with at least one configured feed",
		},
	)

	// FeedChecksTotal counts feed checks by kind (rss, gallery) and result
	FeedChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_checks_total",
			Help: "Total number of feed checks",
		},
		[]string{"kind", "result"}, // result: success, failure, skipped
	)

	// FeedCheckDuration measures time to check one feed end to end
	FeedCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_check_duration_seconds",
			Help:    "Time taken to check one feed including publishing",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	// PostsPublishedTotal counts channel posts published by feed kind
	PostsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_published_total",
			Help: "Total number of posts published to Discord channels",
		},
		[]string{"kind"},
	)

	// PublishErrorsTotal counts failed publish attempts by error type
	PublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_errors_total",
			Help: "Total number of failed Discord publish attempts",
		},
		[]string{"error_type"},
	)

	// ExtractionStrategyTotal counts gallery extraction runs by winning strategy
	ExtractionStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_extraction_strategy_total",
			Help: "Gallery extraction runs by the strategy that produced posts",
		},
		[]string{"strategy"},
	)

	// LedgerSize tracks the dedup ledger length per gallery feed page
	LedgerSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_ledger_size",
			Help: "Number of remembered post ids in a gallery feed dedup ledger",
		},
		[]string{"page_id"},
	)

	// MetadataFetchAttemptsTotal counts metadata enrichment attempts by result
	MetadataFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_fetch_attempts_total",
			Help: "Total number of post metadata fetch attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// MetadataFetchDuration measures time to fetch and parse one post page
	MetadataFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metadata_fetch_duration_seconds",
			Help:    "Time taken to fetch metadata for one post",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordOperationDuration records the duration of a named database operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
