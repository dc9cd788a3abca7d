package flyweight

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	// Separator joins intrinsic components into a Key.
	// Components must not contain it.
	Separator = "_"

	// MaxKeyLength is the maximum allowed length of a derived key, in bytes.
	MaxKeyLength = 512
)

// Key is the canonical identity of a flyweight's intrinsic state.
type Key string

func (k Key) String() string { return string(k) }

// Intrinsic is the shared, identity-bearing state of a flyweight.
//
// Contract:
// - Determinism: equal values must return equal components in the same order.
// - Ownership: the returned slice is read during derivation and copied on
// construction; callers may reuse it afterwards.
type Intrinsic interface {
	Parts() []string
}

// State constrains the intrinsic state types a Factory accepts.
//
// Pointer, interface and channel types satisfy comparable but are shared by
// reference; NewFactory rejects them with ErrUnsupportedState. A struct state
// is copied shallowly, so its fields should be values as well.
type State interface {
	comparable
	Intrinsic
}

// Derive computes the canonical key for state.
func Derive(state Intrinsic) (Key, error) {
	if isNil(state) {
		return "", fmt.Errorf("%w: nil state", ErrMalformedKey)
	}
	return DeriveParts(state.Parts()...)
}

// DeriveParts computes the canonical key for an ordered list of components.
// Format: <part0>_<part1>_..._<partN>
//
// Components containing Separator or a line break are rejected, as is an empty
// list, so distinct well-formed inputs never share a key.
func DeriveParts(parts ...string) (Key, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no components", ErrMalformedKey)
	}

	size := len(parts) - 1
	for i, p := range parts {
		if strings.Contains(p, Separator) {
			return "", fmt.Errorf("%w: component %d (%q) contains separator %q", ErrMalformedKey, i, p, Separator)
		}
		if strings.ContainsAny(p, "\n\r") {
			return "", fmt.Errorf("%w: component %d contains a line break", ErrMalformedKey, i)
		}
		size += len(p)
	}
	if size > MaxKeyLength {
		return "", fmt.Errorf("%w: %d bytes", ErrKeyTooLong, size)
	}

	return Key(strings.Join(parts, Separator)), nil
}

// isNil reports whether state is nil or a nil pointer held in the interface.
func isNil(state Intrinsic) bool {
	if state == nil {
		return true
	}
	v := reflect.ValueOf(state)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// checkStateType rejects state types that would alias caller memory.
func checkStateType[S State]() error {
	switch t := reflect.TypeFor[S](); t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s is a %s", ErrUnsupportedState, t, t.Kind())
	}
	return nil
}
