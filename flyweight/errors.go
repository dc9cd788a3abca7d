package flyweight

import (
	"errors"
	"fmt"
)

// Sentinel errors for pool operations.
var (
	// ErrMalformedKey indicates an intrinsic component cannot be canonicalized.
	ErrMalformedKey = errors.New("flyweight: malformed key input")

	// ErrKeyTooLong indicates the derived key exceeds MaxKeyLength.
	// It wraps ErrMalformedKey.
	ErrKeyTooLong = fmt.Errorf("%w: key exceeds max length", ErrMalformedKey)

	// ErrDuplicateInsert is the panic value used when a key is inserted twice.
	ErrDuplicateInsert = errors.New("flyweight: duplicate insert")

	// ErrNilStore indicates a Factory was built without a Store.
	ErrNilStore = errors.New("flyweight: store is nil")

	// ErrUnsupportedState indicates a Factory state type that is shared by
	// reference (pointer, interface or channel) rather than copied by value.
	ErrUnsupportedState = errors.New("flyweight: state type must be a value type")

	// ErrInvalidExtrinsic indicates extrinsic state failed validation.
	ErrInvalidExtrinsic = errors.New("flyweight: invalid extrinsic state")
)
