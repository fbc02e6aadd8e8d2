package checkpoint

import (
	"cmp"
	"fmt"
)

// Offset is an immutable marker of how far processing has gotten for one
// addressable resource. The zero value is the "no offset yet" sentinel.
type Offset[T any] struct {
	value T
	set   bool
}

// NewOffset wraps v.
func NewOffset[T any](v T) Offset[T] {
	return Offset[T]{value: v, set: true}
}

// NoOffset returns the sentinel of a resource that has never been processed.
func NoOffset[T any]() Offset[T] {
	return Offset[T]{}
}

// Value returns the wrapped value, the zero T for the sentinel.
func (o Offset[T]) Value() T {
	return o.value
}

func (o Offset[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Offset[T]) IsSet() bool {
	return o.set
}

func (o Offset[T]) String() string {
	if !o.set {
		return "<none>"
	}

	return fmt.Sprintf("%v", o.value)
}

// Compare orders offsets by their values, the sentinel sorts first.
func Compare[T cmp.Ordered](a, b Offset[T]) int {
	switch {
	case !a.set && !b.set:
		return 0
	case !a.set:
		return -1
	case !b.set:
		return 1
	}

	return cmp.Compare(a.value, b.value)
}
