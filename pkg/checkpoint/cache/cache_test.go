package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentBasic(t *testing.T) {
	c := NewConcurrent[string, int64]()
	_, ok := c.Get("k1")
	assert.Equal(t, false, ok)

	c.Add("k1", 10)
	c.Add("k2", 5)
	c.Add("k1", 20)

	v, ok := c.Get("k1")
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(20), v)
	assert.Equal(t, true, c.Contains("k2"))
	assert.Equal(t, false, c.Contains("k3"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 0, c.Capacity())
	assert.Equal(t, false, c.IsFull())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	c := NewConcurrent[int, int]()

	// an update path and a refresh path writing at the same time
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Add(w*1000+i, i)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 2000, c.Len())
	for i := 0; i < 2000; i++ {
		v, ok := c.Get(i)
		assert.Equal(t, true, ok)
		assert.Equal(t, i%1000, v)
	}
}

func TestConcurrentSameKeyLastWriterWins(t *testing.T) {
	c := NewConcurrent[string, string]()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Add("shared", fmt.Sprintf("w%d", w))
			}
		}(w)
	}
	wg.Wait()

	v, ok := c.Get("shared")
	assert.Equal(t, true, ok)
	assert.Contains(t, []string{"w0", "w1", "w2", "w3"}, v)
	assert.Equal(t, 1, c.Len())
}

func TestConcurrentForEach(t *testing.T) {
	c := NewConcurrent[string, int]()
	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("k%d", i), i)
	}

	seen := map[string]int{}
	c.ForEach(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, 10, len(seen))
	assert.Equal(t, 7, seen["k7"])

	n := 0
	c.ForEach(func(string, int) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

type partition struct {
	topic string
	id    int32
}

func (p partition) String() string {
	return fmt.Sprintf("%s#%d", p.topic, p.id)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "abc", keyString("abc"))
	assert.Equal(t, "12", keyString(12))
	assert.Equal(t, "orders#3", keyString(partition{"orders", 3}))
	assert.Equal(t, shard("abc"), shard("abc"))
}

func TestLRU(t *testing.T) {
	c := NewLRU[partition, int64](100, 0)
	defer c.Close()

	p := partition{"orders", 1}
	c.Add(p, 7)
	c.Add(p, 8)
	v, ok := c.Get(p)
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(8), v)
	assert.Equal(t, false, c.Contains(partition{"orders", 2}))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 100, c.Capacity())
	assert.Equal(t, false, c.IsFull())

	var keys []partition
	c.ForEach(func(k partition, v int64) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []partition{p}, keys)
}

func TestLRUExpired(t *testing.T) {
	c := NewLRU[string, int](10, time.Millisecond)
	defer c.Close()

	c.Add("k", 1)
	time.Sleep(time.Millisecond * 5)
	_, ok := c.Get("k")
	assert.Equal(t, false, ok)
}

func TestLRUCloseTwice(t *testing.T) {
	c := NewLRU[string, int](10, 0)
	c.Close()
	c.Close()
}
