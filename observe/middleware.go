package observe

import (
	"context"
	"fmt"
	"time"
)

// LookupFunc performs one get-or-create call and reports how it resolved.
type LookupFunc func(ctx context.Context) (Lookup, error)

// Middleware wraps pool lookups with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped lookup are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Observe runs fn inside a span and records its outcome.
// Hits are logged at debug level, misses at info and rejections at warn.
// If fn panics the span is ended with the panic as its error and the panic
// is re-raised.
func (m *Middleware) Observe(ctx context.Context, meta PoolMeta, fn LookupFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.tracer.EndSpan(span, Lookup{Outcome: OutcomeRejected}, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	lookup, err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, lookup, err)
	m.metrics.RecordLookup(ctx, meta, lookup, duration, err)

	logger := m.logger.WithPool(meta)
	fields := []Field{
		{Key: "key", Value: lookup.Key},
		{Key: "outcome", Value: lookup.Outcome.String()},
	}

	switch {
	case err != nil:
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Warn(ctx, "rejected flyweight lookup", fields...)
	case lookup.Outcome == OutcomeMiss:
		logger.Info(ctx, "created new flyweight", fields...)
	default:
		logger.Debug(ctx, "reusing existing flyweight", fields...)
	}

	return err
}

// TrackPoolSize publishes size as the pool size gauge for meta.
func (m *Middleware) TrackPoolSize(meta PoolMeta, size func() int64) error {
	if meta.Name == "" {
		return ErrMissingPoolName
	}
	return m.metrics.ObservePoolSize(meta, size)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
