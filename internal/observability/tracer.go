// Package observability wraps OpenTelemetry tracing around the invocation
// pipeline (spec.md §9): one span per invocation, with no separate spans
// for the parse, runtime-init, dispatch and finalize phases, reducing to a
// no-op tracer when tracing is disabled.
//
// Grounded on the teacher's observability/tracer.go + telemetry.go +
// propagation.go, with the HTTP-specific middleware dropped (this runtime
// has no inbound HTTP surface — see DESIGN.md) and attribute keys
// retargeted from per-function-invocation fields to per-pipeline-phase
// fields.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new internal span with the given name and attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// SetSpanError marks the span as errored.
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful.
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Attribute keys for invocation pipeline spans (spec.md §4.9, §9).
var (
	AttrAction         = attribute.Key("provider.action")
	AttrResourceType   = attribute.Key("provider.resource_type")
	AttrRequestID      = attribute.Key("provider.request_id")
	AttrDurationMs     = attribute.Key("provider.duration_ms")
	AttrSinkOutcome    = attribute.Key("provider.log_sink.outcome") // "cloudwatch" | "s3" | "local-only"
	AttrHandlerStatus  = attribute.Key("provider.handler_status")
)
