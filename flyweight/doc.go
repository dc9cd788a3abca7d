// Package flyweight provides an interning pool that deduplicates heavyweight
// objects by their intrinsic (shared) state.
//
// A Factory derives a canonical Key from the intrinsic components of a value,
// looks it up in a Store and either returns the existing Flyweight or builds
// exactly one new instance for that key. Per-use (extrinsic) state is passed to
// Flyweight.Operate on every call and is never retained.
//
// The pool is unbounded and never evicts: at most one Flyweight exists per key
// for the lifetime of the Store.
package flyweight
