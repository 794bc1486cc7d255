// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics for the ops endpoint
//   - Feed synchronization metrics (checks, published posts, extraction strategies)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "guildsync/internal/observability/metrics"
//
//	func checkFeed(kind string) {
//	    start := time.Now()
//	    // ... fetch, extract, publish ...
//	    metrics.RecordFeedCheck(kind, "success", time.Since(start))
//	    metrics.RecordPostsPublished(kind, 3)
//	}
package metrics
