// Package history provides a bounded, recency-ordered buffer that keeps the
// most recent items pushed into it and silently evicts the oldest once full.
package history

import (
	"errors"
	"iter"
)

var (
	// ErrNilDestination indicates CopyTo received a nil destination slice.
	ErrNilDestination = errors.New("history: destination must not be nil")
	// ErrOutOfRange indicates an invalid offset or insufficient destination room.
	ErrOutOfRange = errors.New("history: index out of range")
)

// Buffer keeps up to Cap items. Index 0 is always the newest item.
type Buffer[T any] struct {
	items []T
	head  int
	count int
}

// New creates a buffer holding at most capacity items. A capacity lower than
// one produces a buffer that discards every push.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer[T]{items: make([]T, capacity), head: -1}
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	if b == nil {
		return 0
	}
	return b.count
}

// Push stores item as the newest entry, evicting the oldest when at capacity.
func (b *Buffer[T]) Push(item T) {
	if b == nil || len(b.items) == 0 {
		return
	}
	b.head = (b.head + 1) % len(b.items)
	b.items[b.head] = item
	if b.count < len(b.items) {
		b.count++
	}
}

// PeekNewest returns the most recently pushed item.
func (b *Buffer[T]) PeekNewest() (T, bool) {
	return b.At(0)
}

// PeekOldest returns the item closest to eviction.
func (b *Buffer[T]) PeekOldest() (T, bool) {
	return b.At(b.Len() - 1)
}

// At returns the item at recency index i (0 is newest).
func (b *Buffer[T]) At(i int) (T, bool) {
	var zero T
	if b == nil || i < 0 || i >= b.count {
		return zero, false
	}
	return b.items[b.slot(i)], true
}

// RemoveNewest drops the newest item, reporting whether one existed.
func (b *Buffer[T]) RemoveNewest() bool {
	if b.Len() == 0 {
		return false
	}
	var zero T
	b.items[b.head] = zero
	b.head = (b.head - 1 + len(b.items)) % len(b.items)
	b.count--
	return true
}

// RemoveOldest drops the oldest item, reporting whether one existed.
func (b *Buffer[T]) RemoveOldest() bool {
	if b.Len() == 0 {
		return false
	}
	var zero T
	b.items[b.slot(b.count-1)] = zero
	b.count--
	return true
}

// IndexFunc returns the recency index of the first item matching match, or -1.
func (b *Buffer[T]) IndexFunc(match func(T) bool) int {
	if match == nil {
		return -1
	}
	for i := 0; i < b.Len(); i++ {
		if match(b.items[b.slot(i)]) {
			return i
		}
	}
	return -1
}

// RemoveFunc removes the newest item matching match while keeping the
// relative order of the remaining items.
func (b *Buffer[T]) RemoveFunc(match func(T) bool) bool {
	idx := b.IndexFunc(match)
	if idx < 0 {
		return false
	}
	kept := make([]T, 0, b.count-1)
	for i := b.count - 1; i >= 0; i-- {
		if i == idx {
			continue
		}
		kept = append(kept, b.items[b.slot(i)])
	}
	b.Clear()
	for _, item := range kept {
		b.Push(item)
	}
	return true
}

// Clear drops every item. Capacity is unchanged.
func (b *Buffer[T]) Clear() {
	if b == nil {
		return
	}
	clear(b.items)
	b.head = -1
	b.count = 0
}

// All yields items from newest to oldest.
func (b *Buffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < b.Len(); i++ {
			if !yield(i, b.items[b.slot(i)]) {
				return
			}
		}
	}
}

// Slice returns a newest-first copy of the buffered items.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.Len())
	for i := range out {
		out[i] = b.items[b.slot(i)]
	}
	return out
}

// CopyTo writes the items newest-first into dst starting at offset.
func (b *Buffer[T]) CopyTo(dst []T, offset int) error {
	if dst == nil {
		return ErrNilDestination
	}
	if offset < 0 || offset > len(dst) {
		return ErrOutOfRange
	}
	if len(dst)-offset < b.Len() {
		return ErrOutOfRange
	}
	for i := 0; i < b.Len(); i++ {
		dst[offset+i] = b.items[b.slot(i)]
	}
	return nil
}

func (b *Buffer[T]) slot(i int) int {
	return (b.head - i + len(b.items)) % len(b.items)
}
