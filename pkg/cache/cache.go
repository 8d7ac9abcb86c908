// Package cache provides generic, thread-safe id-keyed stores for the
// object cache layer.
//
// Two store types are offered:
//   - Simple: no eviction policy (stores entries until deleted)
//   - FIFO: capacity-bounded, evicting the first-inserted entry once the
//     bound is exceeded (insertion order, not recency of use)
//
// Both are thread-safe, always collect statistics, and can optionally
// export those statistics as Prometheus metrics via functional options.
package cache

import (
	"github.com/8r2y5/guilded/errors"
)

// Cache is the interface both store types satisfy. Values are parameterized
// by V for type safety; keys are entity ids.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found,
	// zero value and false otherwise.
	Get(key string) (V, bool)

	// Set stores a value under key, overwriting any existing entry with the
	// same key. Returns true if a new entry was created, false if an
	// existing one was overwritten.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries.
	Clear() error

	// Size returns the current number of entries.
	Size() int

	// Keys returns all keys currently present.
	Keys() []string

	// Stats returns the store's statistics tracker.
	Stats() *Statistics
}

// EvictCallback is called when an entry is evicted by the FIFO bound.
type EvictCallback[V any] func(key string, value V)

// NewSimple creates an unbounded store.
func NewSimple[V any](options ...Option[V]) (Cache[V], error) {
	return newSimpleCache(applyOptions(options...))
}

// NewFIFO creates a store bounded at maxSize entries. After every insert
// that pushes the store past its bound, the single oldest-inserted entry is
// removed. Overwriting an existing key keeps its original insertion slot.
func NewFIFO[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	if maxSize <= 0 {
		return nil, errors.WrapInvalid(
			errors.New("max size must be positive"),
			"cache", "NewFIFO", "validate max size")
	}
	return newFIFOCache(maxSize, applyOptions(options...))
}

// validateKey rejects keys that cannot index an entity.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.New("key cannot be empty"),
			"cache", "validateKey", "validate key")
	}
	return nil
}
