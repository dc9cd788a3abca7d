package flyweight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/flypool/observe"
)

type testCar struct {
	Brand, Model, Color string
}

func (c testCar) Parts() []string { return []string{c.Brand, c.Model, c.Color} }

type testOwner struct {
	Plates string `json:"plates"`
	Owner  string `json:"owner"`
}

func (o testOwner) Validate() error {
	if o.Plates == "" {
		return errors.New("plates are required")
	}
	return nil
}

func newTestFactory(t *testing.T) *Factory[testCar, testOwner] {
	t.Helper()
	f, err := NewFactory(NewStore[*Flyweight[testCar, testOwner]](), FactoryConfig{Name: "cars"})
	require.NoError(t, err)
	return f
}

func TestNewFactory_NilStore(t *testing.T) {
	f, err := NewFactory[testCar, testOwner](nil, FactoryConfig{})
	require.ErrorIs(t, err, ErrNilStore)
	assert.Nil(t, f)
}

func TestNewFactory_RejectsReferenceStates(t *testing.T) {
	_, err := NewFactory(NewStore[*Flyweight[*testCar, testOwner]](), FactoryConfig{})
	require.ErrorIs(t, err, ErrUnsupportedState)

	_, err = NewFactory(NewStore[*Flyweight[Intrinsic, testOwner]](), FactoryConfig{})
	require.ErrorIs(t, err, ErrUnsupportedState)
}

// A submitted value-type state cannot be changed through the caller's copy.
func TestFactory_StateIsCopied(t *testing.T) {
	f := newTestFactory(t)
	car := testCar{"BMW", "M5", "red"}

	fw, err := f.GetOrCreate(context.Background(), car)
	require.NoError(t, err)
	car.Model = "X1"

	assert.Equal(t, testCar{"BMW", "M5", "red"}, fw.State())
	view, err := fw.Operate(testOwner{Plates: "CL234IR"})
	require.NoError(t, err)
	assert.Equal(t, "M5", view.Shared.Model)
	assert.Equal(t, []string{"BMW", "M5", "red"}, view.Parts)
}

func TestNewFactory_DefaultName(t *testing.T) {
	f, err := NewFactory(NewStore[*Flyweight[testCar, testOwner]](), FactoryConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPoolName, f.Name())
}

// Repeated requests for the same intrinsic state return the same instance.
func TestFactory_ReusesInstance(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	first, err := f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	second, err := f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1}, f.Stats())
}

func TestFactory_DistinctStatesDistinctInstances(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	m5, err := f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	x1, err := f.GetOrCreate(ctx, testCar{"BMW", "X1", "red"})
	require.NoError(t, err)

	assert.NotSame(t, m5, x1)
	assert.NotEqual(t, m5.ID(), x1.ID())
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []Key{"BMW_M5_red", "BMW_X1_red"}, f.Keys())
}

func TestFactory_RejectsMalformedState(t *testing.T) {
	f := newTestFactory(t)

	fw, err := f.GetOrCreate(context.Background(), testCar{"BMW", "M5_sport", "red"})
	require.ErrorIs(t, err, ErrMalformedKey)
	assert.Nil(t, fw)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, int64(1), f.Stats().Rejected)
}

func TestFactory_SizeCountsDistinctKeys(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	colors := []string{"red", "black", "white", "pink"}
	calls := 0
	for round := range 3 {
		for i, c := range colors {
			_, err := f.GetOrCreate(ctx, testCar{"BMW", fmt.Sprintf("M%d", (i+round)%2), c})
			require.NoError(t, err)
			calls++
		}
	}

	// 4 colors x 2 models
	assert.Equal(t, 8, f.Len())
	stats := f.Stats()
	assert.Equal(t, int64(calls), stats.Hits+stats.Misses)
	assert.Equal(t, int64(8), stats.Misses)
}

func TestFactory_ConcurrentSameKeyBuildsOnce(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	const numGoroutines = 64
	results := make([]*Flyweight[testCar, testOwner], numGoroutines)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func() {
			defer wg.Done()
			<-start
			fw, err := f.GetOrCreate(ctx, testCar{"Chevrolet", "Camaro2018", "pink"})
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			results[i] = fw
		}()
	}
	close(start)
	wg.Wait()

	for i := 1; i < numGoroutines; i++ {
		require.Same(t, results[0], results[i], "goroutine %d got a different instance", i)
	}
	assert.Equal(t, 1, f.Len())
	stats := f.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(numGoroutines-1), stats.Hits)
}

func TestFactory_ResolveOutcome(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	_, outcome, err := f.Resolve(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	assert.Equal(t, observe.OutcomeMiss, outcome)

	_, outcome, err = f.Resolve(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	assert.Equal(t, observe.OutcomeHit, outcome)

	_, outcome, err = f.Resolve(ctx, testCar{"BMW", "M5_cs", "red"})
	require.ErrorIs(t, err, ErrMalformedKey)
	assert.Equal(t, observe.OutcomeRejected, outcome)
}

// Outcomes are per call, so concurrent callers see exactly one miss between
// them regardless of what else runs against the pool.
func TestFactory_ResolveOutcomeConcurrent(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	const numGoroutines = 32
	outcomes := make([]observe.Outcome, numGoroutines)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func() {
			defer wg.Done()
			<-start
			if i%2 == 1 {
				_, _ = f.GetOrCreate(ctx, testCar{"Audi", "A4", fmt.Sprint(i)})
			}
			_, outcome, err := f.Resolve(ctx, testCar{"BMW", "X1", "red"})
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			outcomes[i] = outcome
		}()
	}
	close(start)
	wg.Wait()

	misses := 0
	for _, o := range outcomes {
		if o == observe.OutcomeMiss {
			misses++
		}
	}
	assert.Equal(t, 1, misses)
}

func TestFactory_ConcurrentInterleavedKeys(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	const numGoroutines = 32
	const distinct = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := range numGoroutines {
		go func() {
			defer wg.Done()
			for i := range distinct * 5 {
				model := fmt.Sprintf("model%d", (i+g)%distinct)
				if _, err := f.GetOrCreate(ctx, testCar{"BMW", model, "red"}); err != nil {
					t.Errorf("GetOrCreate: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, distinct, f.Len())
	assert.Equal(t, int64(distinct), f.Stats().Misses)
}

func TestFactory_Seed(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	err := f.Seed(ctx,
		testCar{"Chevrolet", "Camaro2018", "pink"},
		testCar{"Mercedes Benz", "C300", "black"},
		testCar{"Mercedes Benz", "C500", "red"},
		testCar{"BMW", "M5", "red"},
		testCar{"BMW", "X6", "white"},
	)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Len())

	_, err = f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	assert.Equal(t, 5, f.Len())
	assert.Equal(t, int64(1), f.Stats().Hits)
}

func TestFactory_SeedStopsAtMalformed(t *testing.T) {
	f := newTestFactory(t)

	err := f.Seed(context.Background(),
		testCar{"BMW", "M5", "red"},
		testCar{"BMW", "X_6", "white"},
		testCar{"BMW", "X1", "red"},
	)
	require.ErrorIs(t, err, ErrMalformedKey)
	assert.Contains(t, err.Error(), "seed 1")
	assert.Equal(t, []Key{"BMW_M5_red"}, f.Keys())
}
