package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestPoolMeta_SpanName(t *testing.T) {
	meta := PoolMeta{Name: "cars"}
	if got := meta.SpanName(); got != "flyweight.get_or_create.cars" {
		t.Errorf("SpanName() = %q, want %q", got, "flyweight.get_or_create.cars")
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeHit, "hit"},
		{OutcomeMiss, "miss"},
		{OutcomeRejected, "rejected"},
		{Outcome(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.want {
				t.Errorf("Outcome.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	meta := PoolMeta{Name: "cars", Kind: "main.CarModel"}
	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, Lookup{Key: "BMW_M5_red", Outcome: OutcomeMiss}, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]

	if s.Name() != "flyweight.get_or_create.cars" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}

	attrs := spanAttrs(s)
	want := map[string]string{
		"flyweight.pool":    "cars",
		"flyweight.kind":    "main.CarModel",
		"flyweight.key":     "BMW_M5_red",
		"flyweight.outcome": "miss",
	}
	for k, v := range want {
		if got, ok := attrs[k]; !ok || got.AsString() != v {
			t.Errorf("attribute %s = %v, want %q", k, got, v)
		}
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), PoolMeta{Name: "cars"})
	tr.EndSpan(span, Lookup{Outcome: OutcomeRejected}, errors.New("malformed"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if s.Status().Description != "malformed" {
		t.Errorf("status description = %q", s.Status().Description)
	}
	if len(s.Events()) == 0 {
		t.Error("expected error event to be recorded")
	}
	if _, ok := spanAttrs(s)["flyweight.key"]; ok {
		t.Error("rejected lookup should not carry a key attribute")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	parentCtx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, child := tr.StartSpan(parentCtx, PoolMeta{Name: "cars"})
	tr.EndSpan(child, Lookup{Outcome: OutcomeHit}, nil)
	parent.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("lookup span should be a child of the caller's span")
	}
}

func TestNoopTracer(t *testing.T) {
	tr := newNoopTracer()
	_, span := tr.StartSpan(context.Background(), PoolMeta{Name: "cars"})
	tr.EndSpan(span, Lookup{}, errors.New("ignored"))
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
}
