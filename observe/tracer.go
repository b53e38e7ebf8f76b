package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with per-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndCall must be best-effort and must not panic.
type Tracer interface {
	// StartCall starts a span for one resilient call under the named policy.
	StartCall(ctx context.Context, policy string) (context.Context, trace.Span)

	// EndCall ends the span, recording any error.
	EndCall(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartCall starts a span named call.exec.<policy>.
func (t *tracerImpl) StartCall(ctx context.Context, policy string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "call.exec."+policy,
		trace.WithAttributes(
			attribute.String("policy", policy),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndCall ends the span and records the error status if present.
func (t *tracerImpl) EndCall(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartCall(ctx context.Context, policy string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "call.exec."+policy)
}

func (t *noopTracer) EndCall(span trace.Span, err error) {
	span.End()
}
