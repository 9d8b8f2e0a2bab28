package research

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for orchestration spans. No
// exporter is wired here: the caller configures the global TracerProvider (or
// leaves the no-op default), keeping this package provider-agnostic.
const tracerName = "github.com/jordangeorgiev/open-deep-research"

// StartSpan starts a span for one orchestration step (a supervisor
// iteration, a worker run, a synthesis call) under the given name.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}
