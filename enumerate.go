package overlay

import (
	"fmt"
	"iter"
)

// Pair is a materialized key/value entry produced by enumeration.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// All yields (key, base value) pairs in insertion order. Keys removed during
// enumeration are skipped; keys added during enumeration are not visited.
func (s *Store[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		s.walk(func(key K, record *Record[V]) bool {
			return yield(key, record.base)
		})
	}
}

// Keys yields every key in insertion order.
func (s *Store[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.walk(func(key K, _ *Record[V]) bool {
			return yield(key)
		})
	}
}

// Values yields every base value in insertion order.
func (s *Store[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		s.walk(func(_ K, record *Record[V]) bool {
			return yield(record.base)
		})
	}
}

// CopyTo writes (key, base value) pairs into dst starting at offset.
func (s *Store[K, V]) CopyTo(dst []Pair[K, V], offset int) error {
	return copyPairs(dst, offset, s.Len(), s.All())
}

// ToSlice returns the (key, base value) pairs in insertion order.
func (s *Store[K, V]) ToSlice() []Pair[K, V] {
	return collectPairs(s.Len(), s.All())
}

func (s *Store[K, V]) walk(fn func(K, *Record[V]) bool) {
	for _, key := range s.keySnapshot() {
		record, ok := s.records[key]
		if !ok {
			continue
		}
		if !fn(key, record) {
			return
		}
	}
}

// All yields (key, combined value) pairs, one per store key, in store order.
func (v *View[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		v.store.walk(func(key K, record *Record[V]) bool {
			value, _ := record.combined(v.id, v.combiner)
			return yield(key, value)
		})
	}
}

// Keys yields every store key in store order.
func (v *View[K, V]) Keys() iter.Seq[K] {
	return v.store.Keys()
}

// Values yields the combined value for every store key in store order.
func (v *View[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		v.store.walk(func(_ K, record *Record[V]) bool {
			value, _ := record.combined(v.id, v.combiner)
			return yield(value)
		})
	}
}

// CopyTo writes (key, combined value) pairs into dst starting at offset.
func (v *View[K, V]) CopyTo(dst []Pair[K, V], offset int) error {
	return copyPairs(dst, offset, v.Len(), v.All())
}

// ToSlice returns the (key, combined value) pairs in store order.
func (v *View[K, V]) ToSlice() []Pair[K, V] {
	return collectPairs(v.Len(), v.All())
}

func copyPairs[K comparable, V any](dst []Pair[K, V], offset, count int, seq iter.Seq2[K, V]) error {
	if dst == nil {
		return ErrNilDestination
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset %d must not be negative", ErrOutOfRange, offset)
	}
	if offset > len(dst) {
		return fmt.Errorf("%w: offset %d exceeds destination length %d", ErrOutOfRange, offset, len(dst))
	}
	if len(dst)-offset < count {
		return fmt.Errorf("%w: destination has room for %d entries, need %d", ErrOutOfRange, len(dst)-offset, count)
	}
	for key, value := range seq {
		dst[offset] = Pair[K, V]{Key: key, Value: value}
		offset++
	}
	return nil
}

func collectPairs[K comparable, V any](count int, seq iter.Seq2[K, V]) []Pair[K, V] {
	out := make([]Pair[K, V], 0, count)
	for key, value := range seq {
		out = append(out, Pair[K, V]{Key: key, Value: value})
	}
	return out
}
