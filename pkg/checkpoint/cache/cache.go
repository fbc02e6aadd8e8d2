// Package cache provides the in-memory key to offset stores used by the
// checkpoint strategies. A cache is a pure performance layer, it can be
// rebuilt from the log at any time.
package cache

// Cache is a concurrent K->V store with upsert semantics.
//
// Concurrent Add of distinct keys never loses an update, concurrent Add of
// the same key is last writer wins.
type Cache[K comparable, V any] interface {

	// Add upserts the value of key, replacing any prior value.
	Add(key K, value V)

	// Get returns the current value of key, false if absent.
	Get(key K) (V, bool)

	Contains(key K) bool

	// Len returns the number of entries.
	Len() int

	// Capacity returns the max number of entries, 0 for unbounded.
	Capacity() int

	IsFull() bool

	// ForEach calls fn for each entry until fn returns false.
	// The iteration order is undefined.
	ForEach(fn func(key K, value V) bool)
}
