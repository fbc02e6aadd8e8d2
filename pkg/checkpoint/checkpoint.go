// Package checkpoint persists the progress of data consuming components so
// that processing can resume from the last processed offset in the case of
// a restart or unexpected interruption.
package checkpoint

import (
	"context"
)

// Strategy owns the offset lifecycle of a set of resumable resources.
type Strategy[K comparable, V any] interface {

	// Start rebuilds the local view from durable storage and makes the
	// strategy ready to receive offset updates.
	Start(ctx context.Context) error

	// Stop releases all the resources held by the strategy.
	// It is safe to call Stop more than once.
	Stop() error

	// UpdateLastOffset records the last offset of the given resumable.
	UpdateLastOffset(ctx context.Context, r Resumable[K, V]) error

	// LastOffset returns the last observed offset of key.
	LastOffset(key K) (V, bool)

	// Resume hands the recovered offsets over to the adapter.
	Resume() error

	// Status returns the lifecycle status of the strategy.
	Status() Status
}

// Lookup is anything that can answer the last observed offset of a key.
type Lookup[K comparable, V any] interface {
	Get(key K) (V, bool)
}

// LookupFunc adapts a function to Lookup, e,g. LookupFunc(strategy.LastOffset).
type LookupFunc[K comparable, V any] func(key K) (V, bool)

func (f LookupFunc[K, V]) Get(key K) (V, bool) {
	return f(key)
}
