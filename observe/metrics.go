package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records lookup metrics for flyweight pools.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: RecordLookup must not panic.
type Metrics interface {
	// RecordLookup records a get-or-create call with its outcome and duration.
	RecordLookup(ctx context.Context, meta PoolMeta, lookup Lookup, duration time.Duration, err error)

	// ObservePoolSize registers a callback reporting the number of pooled instances.
	ObservePoolSize(meta PoolMeta, size func() int64) error
}

type metricsImpl struct {
	meter        metric.Meter
	lookupCount  metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the pool instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	lookupCount, err := meter.Int64Counter(
		"flyweight.lookup.total",
		metric.WithDescription("Total number of flyweight get-or-create calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"flyweight.lookup.errors",
		metric.WithDescription("Total number of rejected flyweight lookups"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"flyweight.lookup.duration_ms",
		metric.WithDescription("Flyweight get-or-create duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		lookupCount:  lookupCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func poolAttrs(meta PoolMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("flyweight.pool", meta.Name),
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("flyweight.kind", meta.Kind))
	}
	return attrs
}

// RecordLookup records metrics for a get-or-create call.
func (m *metricsImpl) RecordLookup(ctx context.Context, meta PoolMeta, lookup Lookup, duration time.Duration, err error) {
	attrs := poolAttrs(meta)

	m.lookupCount.Add(ctx, 1, metric.WithAttributes(
		append(attrs, attribute.String("flyweight.outcome", lookup.Outcome.String()))...,
	))

	opt := metric.WithAttributes(attrs...)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// ObservePoolSize registers an observable gauge backed by size.
func (m *metricsImpl) ObservePoolSize(meta PoolMeta, size func() int64) error {
	opt := metric.WithAttributes(poolAttrs(meta)...)
	_, err := m.meter.Int64ObservableGauge(
		"flyweight.pool.size",
		metric.WithDescription("Number of distinct flyweights held by the pool"),
		metric.WithUnit("{instance}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(size(), opt)
			return nil
		}),
	)
	return err
}

type noopMetrics struct{}

func (m *noopMetrics) RecordLookup(ctx context.Context, meta PoolMeta, lookup Lookup, duration time.Duration, err error) {
}

func (m *noopMetrics) ObservePoolSize(meta PoolMeta, size func() int64) error { return nil }
