package flyweight

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/flypool/observe"
)

// DefaultPoolName is used when FactoryConfig.Name is empty.
const DefaultPoolName = "default"

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	// Name identifies the pool in logs, spans and metrics.
	// Default: DefaultPoolName
	Name string

	// Observer receives every lookup. If nil, lookups are not observed.
	Observer *observe.Middleware
}

// Stats holds diagnostic lookup counters. They are not part of the pool's
// functional contract.
type Stats struct {
	Hits     int64
	Misses   int64
	Rejected int64
	Size     int
}

// Factory is the only constructor of Flyweight instances. It resolves
// intrinsic state to a pooled instance, creating one on first use.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent misses for one key build
// a single instance.
// - Ownership: the Factory is the only writer of its Store.
type Factory[S State, E any] struct {
	store    *Store[*Flyweight[S, E]]
	group    singleflight.Group
	observer *observe.Middleware
	meta     observe.PoolMeta

	hits     atomic.Int64
	misses   atomic.Int64
	rejected atomic.Int64
}

// NewFactory creates a Factory backed by store.
func NewFactory[S State, E any](store *Store[*Flyweight[S, E]], cfg FactoryConfig) (*Factory[S, E], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := checkStateType[S](); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = DefaultPoolName
	}

	var zero S
	f := &Factory[S, E]{
		store:    store,
		observer: cfg.Observer,
		meta: observe.PoolMeta{
			Name: cfg.Name,
			Kind: fmt.Sprintf("%T", zero),
		},
	}

	if f.observer != nil {
		err := f.observer.TrackPoolSize(f.meta, func() int64 {
			return int64(f.store.Len())
		})
		if err != nil {
			return nil, fmt.Errorf("flyweight: track pool size: %w", err)
		}
	}

	return f, nil
}

// Name returns the pool name.
func (f *Factory[S, E]) Name() string { return f.meta.Name }

// GetOrCreate returns the flyweight for state, constructing and storing it on
// first request. The only error is a malformed-input rejection from key
// derivation (ErrMalformedKey); nothing is stored in that case.
func (f *Factory[S, E]) GetOrCreate(ctx context.Context, state S) (*Flyweight[S, E], error) {
	fw, _, err := f.Resolve(ctx, state)
	return fw, err
}

// Resolve is GetOrCreate that also reports how this call was served:
// OutcomeHit when an existing instance was returned, OutcomeMiss when this
// call constructed it and OutcomeRejected on malformed input.
func (f *Factory[S, E]) Resolve(ctx context.Context, state S) (*Flyweight[S, E], observe.Outcome, error) {
	if f.observer == nil {
		fw, lookup, err := f.getOrCreate(state)
		return fw, lookup.Outcome, err
	}

	var (
		fw     *Flyweight[S, E]
		lookup observe.Lookup
	)
	err := f.observer.Observe(ctx, f.meta, func(context.Context) (observe.Lookup, error) {
		var err error
		fw, lookup, err = f.getOrCreate(state)
		return lookup, err
	})
	return fw, lookup.Outcome, err
}

func (f *Factory[S, E]) getOrCreate(state S) (*Flyweight[S, E], observe.Lookup, error) {
	parts := state.Parts()
	key, err := DeriveParts(parts...)
	if err != nil {
		f.rejected.Add(1)
		return nil, observe.Lookup{Outcome: observe.OutcomeRejected}, err
	}

	if fw, ok := f.store.Lookup(key); ok {
		f.hits.Add(1)
		return fw, observe.Lookup{Key: string(key), Outcome: observe.OutcomeHit}, nil
	}

	// Do runs fn on the calling goroutine, so only the caller that
	// constructs the instance sees created == true.
	created := false
	v, _, _ := f.group.Do(string(key), func() (any, error) {
		if fw, ok := f.store.Lookup(key); ok {
			return fw, nil
		}
		fw := newFlyweight[S, E](key, state, parts)
		f.store.Insert(key, fw)
		created = true
		return fw, nil
	})
	fw := v.(*Flyweight[S, E])

	if created {
		f.misses.Add(1)
		return fw, observe.Lookup{Key: string(key), Outcome: observe.OutcomeMiss}, nil
	}
	f.hits.Add(1)
	return fw, observe.Lookup{Key: string(key), Outcome: observe.OutcomeHit}, nil
}

// Seed registers each state through GetOrCreate. It stops at the first
// malformed state; states before it stay registered.
func (f *Factory[S, E]) Seed(ctx context.Context, states ...S) error {
	for i, s := range states {
		if _, err := f.GetOrCreate(ctx, s); err != nil {
			return fmt.Errorf("flyweight: seed %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of distinct flyweights in the pool.
func (f *Factory[S, E]) Len() int { return f.store.Len() }

// Keys returns a sorted snapshot of the pooled keys.
func (f *Factory[S, E]) Keys() []Key { return f.store.Keys() }

// Stats returns a snapshot of the diagnostic counters.
func (f *Factory[S, E]) Stats() Stats {
	return Stats{
		Hits:     f.hits.Load(),
		Misses:   f.misses.Load(),
		Rejected: f.rejected.Load(),
		Size:     f.store.Len(),
	}
}
