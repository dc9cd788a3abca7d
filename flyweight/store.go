package flyweight

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used by NewStore.
const DefaultShards = 16

// Store owns the mapping from Key to pooled value.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Uniqueness: at most one value per key for the lifetime of the store.
// - Growth: entries are never removed.
type Store[V any] struct {
	shards []*shard[V]
	mask   uint64
}

type shard[V any] struct {
	mu      sync.RWMutex
	entries map[Key]V
}

// NewStore creates an empty store with DefaultShards shards.
func NewStore[V any]() *Store[V] {
	return NewShardedStore[V](DefaultShards)
}

// NewShardedStore creates an empty store split into n shards.
// n is rounded up to a power of two; values below 1 mean a single shard.
func NewShardedStore[V any](n int) *Store[V] {
	count := 1
	for count < n {
		count <<= 1
	}

	shards := make([]*shard[V], count)
	for i := range shards {
		shards[i] = &shard[V]{entries: make(map[Key]V)}
	}
	return &Store[V]{
		shards: shards,
		mask:   uint64(count - 1),
	}
}

func (s *Store[V]) shardFor(key Key) *shard[V] {
	return s.shards[xxhash.Sum64String(string(key))&s.mask]
}

// Lookup returns the value stored under key, if any.
func (s *Store[V]) Lookup(key Key) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.entries[key]
	sh.mu.RUnlock()
	return v, ok
}

// Insert stores v under key.
//
// The key must not be present. A duplicate insert means the caller bypassed
// the get-before-insert discipline; Insert panics with an error wrapping
// ErrDuplicateInsert instead of replacing a value other holders may share.
func (s *Store[V]) Insert(key Key, v V) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.entries[key]; exists {
		panic(fmt.Errorf("%w: key %q", ErrDuplicateInsert, key))
	}
	sh.entries[key] = v
}

// Len returns the number of distinct keys.
func (s *Store[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Keys returns a sorted snapshot of the keys present at call time.
func (s *Store[V]) Keys() []Key {
	keys := make([]Key, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.entries {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	slices.Sort(keys)
	return keys
}

// All returns an iterator over a snapshot of the store taken when All is
// called, in key order. Values inserted afterwards are not visited.
//
// The sequence is single-use: ranging over it a second time yields nothing.
func (s *Store[V]) All() iter.Seq2[Key, V] {
	type entry struct {
		key Key
		val V
	}

	var snapshot []entry
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.entries {
			snapshot = append(snapshot, entry{key: k, val: v})
		}
		sh.mu.RUnlock()
	}
	slices.SortFunc(snapshot, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})

	var used atomic.Bool
	return func(yield func(Key, V) bool) {
		if used.Swap(true) {
			return
		}
		for _, e := range snapshot {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}
