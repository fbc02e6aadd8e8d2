package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v2"
)

var _ Cache[string, int64] = (*LRU[string, int64])(nil)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a bounded cache. Once full, the least recently used keys are
// pruned and read as absent until a later Add brings them back.
type LRU[K comparable, V any] struct {
	capacity int
	ttl      time.Duration

	c    *ccache.Cache
	once sync.Once
}

// NewLRU creates a LRU holding at most capacity entries. A ttl of 0 means
// entries never expire.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour * 24 * 365 * 100
	}

	prune := capacity / 10
	if prune < 1 {
		prune = 1
	}

	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		c:        ccache.New(ccache.Configure().MaxSize(int64(capacity)).ItemsToPrune(uint32(prune))),
	}
}

func (c *LRU[K, V]) Add(key K, value V) {
	c.c.Set(keyString(key), entry[K, V]{key: key, value: value}, c.ttl)
}

func (c *LRU[K, V]) Get(key K) (v V, ok bool) {
	item := c.c.Get(keyString(key))
	if item == nil || item.Expired() {
		return
	}

	return item.Value().(entry[K, V]).value, true
}

func (c *LRU[K, V]) Contains(key K) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *LRU[K, V]) Len() int {
	return c.c.ItemCount()
}

func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

func (c *LRU[K, V]) IsFull() bool {
	return c.Len() >= c.capacity
}

func (c *LRU[K, V]) ForEach(fn func(key K, value V) bool) {
	c.c.ForEachFunc(func(_ string, item *ccache.Item) bool {
		if item.Expired() {
			return true
		}

		e := item.Value().(entry[K, V])
		return fn(e.key, e.value)
	})
}

// Close stops the background worker of the cache.
func (c *LRU[K, V]) Close() {
	c.once.Do(c.c.Stop)
}
