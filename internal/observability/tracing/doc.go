// Package tracing provides OpenTelemetry tracing integration.
//
// Only the otel API is wired in production code: the worker creates spans
// around sync cycles and feed checks, and the ops HTTP server propagates
// W3C trace context via Middleware. An SDK tracer provider is only set up
// in tests; exporter wiring is left to deployment.
//
// Example usage:
//
//	import "guildsync/internal/observability/tracing"
//
//	func syncAll(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "sync-cycle")
//	    defer span.End()
//	    // ... check feeds ...
//	}
package tracing
