package cache

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

var _ Cache[string, int64] = (*Concurrent[string, int64])(nil)

// Concurrent is an unbounded sharded map, entries live as long as the cache.
type Concurrent[K comparable, V any] struct {
	m cmap.ConcurrentMap[K, V]
}

func NewConcurrent[K comparable, V any]() *Concurrent[K, V] {
	return &Concurrent[K, V]{
		m: cmap.NewWithCustomShardingFunction[K, V](shard[K]),
	}
}

func (c *Concurrent[K, V]) Add(key K, value V) {
	c.m.Set(key, value)
}

func (c *Concurrent[K, V]) Get(key K) (V, bool) {
	return c.m.Get(key)
}

func (c *Concurrent[K, V]) Contains(key K) bool {
	return c.m.Has(key)
}

func (c *Concurrent[K, V]) Len() int {
	return c.m.Count()
}

func (c *Concurrent[K, V]) Capacity() int {
	return 0
}

func (c *Concurrent[K, V]) IsFull() bool {
	return false
}

func (c *Concurrent[K, V]) ForEach(fn func(key K, value V) bool) {
	for t := range c.m.IterBuffered() {
		if !fn(t.Key, t.Val) {
			return
		}
	}
}
