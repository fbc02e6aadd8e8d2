package checkpoint

import (
	"fmt"
	"sync"
)

// Resumable is an entity that can be addressed at a specific offset.
// For example a file reader reports the last position it read so that its
// users are able to skip to that position after a restart.
type Resumable[K comparable, T any] interface {

	// UpdateLastOffset replaces the last offset.
	UpdateLastOffset(offset T)

	// LastOffset returns the last offset, NoOffset if never updated.
	LastOffset() Offset[T]

	// Addressable returns the key that the offset belongs to.
	Addressable() K
}

var (
	_ Resumable[string, int64] = &Position[string, int64]{}
)

// Position is a general purpose Resumable.
type Position[K comparable, T any] struct {
	key K

	mu     sync.RWMutex
	offset Offset[T]
}

// NewPosition creates a Position of key without offset.
func NewPosition[K comparable, T any](key K) *Position[K, T] {
	return &Position[K, T]{key: key}
}

// NewPositionAt creates a Position of key at offset v.
func NewPositionAt[K comparable, T any](key K, v T) *Position[K, T] {
	return &Position[K, T]{key: key, offset: NewOffset(v)}
}

func (p *Position[K, T]) UpdateLastOffset(offset T) {
	p.mu.Lock()
	p.offset = NewOffset(offset)
	p.mu.Unlock()
}

func (p *Position[K, T]) LastOffset() Offset[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.offset
}

func (p *Position[K, T]) Addressable() K {
	return p.key
}

func (p *Position[K, T]) String() string {
	return fmt.Sprintf("%v@%s", p.key, p.LastOffset())
}
