// Package discard provides a checkpoint strategy that persists nothing.
package discard

import (
	"context"
	"sync"

	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/kgibm/resume/pkg/checkpoint/cache"
)

var (
	_ checkpoint.Strategy[string, int64] = &Transient[string, int64]{}
	_ checkpoint.Manager[string, int64]  = &Transient[string, int64]{}
)

// Transient keeps offsets in the cache only, a restart loses them all.
type Transient[K comparable, V any] struct {
	cache   cache.Cache[K, V]
	adapter checkpoint.Adapter

	mu     sync.Mutex
	status checkpoint.Status
}

// New creates a Transient over c, adapter may be nil.
func New[K comparable, V any](c cache.Cache[K, V], adapter checkpoint.Adapter) (*Transient[K, V], error) {
	if c == nil {
		return nil, checkpoint.ErrNilCache
	}

	return &Transient[K, V]{cache: c, adapter: adapter}, nil
}

func (z *Transient[K, V]) Start(context.Context) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	switch z.status {
	case checkpoint.Started:
		return checkpoint.ErrAlreadyStarted
	case checkpoint.Stopped:
		return checkpoint.ErrStopped
	}

	z.status = checkpoint.Started
	return nil
}

func (z *Transient[K, V]) Stop() error {
	z.mu.Lock()
	z.status = checkpoint.Stopped
	z.mu.Unlock()
	return nil
}

func (z *Transient[K, V]) UpdateLastOffset(_ context.Context, r checkpoint.Resumable[K, V]) error {
	if s := z.Status(); s != checkpoint.Started {
		if s == checkpoint.Created {
			return checkpoint.ErrNotStarted
		}
		return checkpoint.ErrStopped
	}

	offset, ok := r.LastOffset().Get()
	if !ok {
		return checkpoint.ErrNoOffset
	}

	z.cache.Add(r.Addressable(), offset)
	return nil
}

func (z *Transient[K, V]) LastOffset(key K) (V, bool) {
	return z.cache.Get(key)
}

func (z *Transient[K, V]) ForEach(fn func(key K, value V) bool) {
	z.cache.ForEach(fn)
}

func (z *Transient[K, V]) Resume() error {
	if z.adapter == nil {
		return nil
	}
	return z.adapter.Resume()
}

func (z *Transient[K, V]) Status() checkpoint.Status {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.status
}
