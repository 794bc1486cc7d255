package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("guildsync")

// GetTracer returns the shared tracer used for all guildsync spans.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "sync.rss")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
