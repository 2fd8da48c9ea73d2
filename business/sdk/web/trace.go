package web

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// addSpan adds an otel span to the existing trace. The global tracer is used
// so this package does not depend on foundation/otel.
func addSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.GetTracerProvider().Tracer("web").Start(ctx, spanName)
	span.SetAttributes(keyValues...)

	return ctx, span
}
