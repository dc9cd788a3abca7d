package flyweight

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Validator is implemented by extrinsic state that can check itself.
// Operate validates extrinsic values that implement it.
type Validator interface {
	Validate() error
}

// Flyweight holds immutable intrinsic state shared by every caller that
// resolves the same Key. Instances are only built by a Factory.
type Flyweight[S State, E any] struct {
	id        uuid.UUID
	key       Key
	state     S
	parts     []string
	createdAt time.Time
}

func newFlyweight[S State, E any](key Key, state S, parts []string) *Flyweight[S, E] {
	return &Flyweight[S, E]{
		id:        uuid.New(),
		key:       key,
		state:     state,
		parts:     slices.Clone(parts),
		createdAt: time.Now(),
	}
}

// ID returns a diagnostic identifier unique to this instance.
func (f *Flyweight[S, E]) ID() uuid.UUID { return f.id }

// Key returns the canonical key this instance is pooled under.
func (f *Flyweight[S, E]) Key() Key { return f.key }

// State returns a copy of the intrinsic state.
func (f *Flyweight[S, E]) State() S { return f.state }

// Parts returns a copy of the intrinsic components.
func (f *Flyweight[S, E]) Parts() []string { return slices.Clone(f.parts) }

// CreatedAt returns when the instance was constructed.
func (f *Flyweight[S, E]) CreatedAt() time.Time { return f.createdAt }

// Operate combines the intrinsic state with caller-supplied extrinsic state.
// The extrinsic value is returned in the View and never retained.
func (f *Flyweight[S, E]) Operate(extrinsic E) (View[S, E], error) {
	if v, ok := any(extrinsic).(Validator); ok {
		if err := v.Validate(); err != nil {
			return View[S, E]{}, fmt.Errorf("%w: %w", ErrInvalidExtrinsic, err)
		}
	}
	return View[S, E]{
		Key:    f.key,
		Shared: f.state,
		Parts:  slices.Clone(f.parts),
		Unique: extrinsic,
	}, nil
}

// View is the combined intrinsic and extrinsic state produced by Operate.
type View[S State, E any] struct {
	Key    Key
	Shared S
	Parts  []string
	Unique E
}

// String renders the view as a one-line narration.
// Format: Flyweight: Displaying shared (<parts json>) and unique (<extrinsic json>) state.
func (v View[S, E]) String() string {
	shared, err := json.Marshal(v.Parts)
	if err != nil {
		shared = []byte(fmt.Sprintf("%q", v.Parts))
	}
	unique, err := json.Marshal(v.Unique)
	if err != nil {
		unique = []byte(fmt.Sprintf("%+v", v.Unique))
	}
	return fmt.Sprintf("Flyweight: Displaying shared (%s) and unique (%s) state.", shared, unique)
}
