package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// PoolMeta identifies a flyweight pool for telemetry purposes.
type PoolMeta struct {
	Name string // Pool name (required)
	Kind string // Intrinsic state type held by the pool (optional)
}

// SpanName returns the deterministic span name for lookups in this pool.
// Format: flyweight.get_or_create.<name>
func (m PoolMeta) SpanName() string {
	return "flyweight.get_or_create." + m.Name
}

// Outcome classifies a get-or-create lookup.
type Outcome int

const (
	// OutcomeHit means an existing flyweight was reused.
	OutcomeHit Outcome = iota
	// OutcomeMiss means a new flyweight was constructed and stored.
	OutcomeMiss
	// OutcomeRejected means the intrinsic state could not be turned into a key.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Lookup describes the result of a single get-or-create call.
type Lookup struct {
	Key     string
	Outcome Outcome
}

// Tracer wraps OpenTelemetry tracing with pool-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a pool lookup.
	StartSpan(ctx context.Context, meta PoolMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the lookup outcome and any error.
	EndSpan(span trace.Span, lookup Lookup, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return newTracer(t)
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with pool metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta PoolMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("flyweight.pool", meta.Name),
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("flyweight.kind", meta.Kind))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the outcome and error status.
func (t *tracerImpl) EndSpan(span trace.Span, lookup Lookup, err error) {
	span.SetAttributes(attribute.String("flyweight.outcome", lookup.Outcome.String()))
	if lookup.Key != "" {
		span.SetAttributes(attribute.String("flyweight.key", lookup.Key))
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta PoolMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Lookup, _ error) {
	span.End()
}
