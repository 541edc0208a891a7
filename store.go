package overlay

import (
	"container/list"

	"github.com/goliatone/go-overlay/pkg/mapx"
)

// Store is the shared base layer. It owns one Record per key and is the single
// source of truth for key existence. Views share a Store by pointer, so every
// structural change is immediately visible to all of them.
//
// Store performs no locking. Concurrent reads of an unchanging store are safe;
// any mutation must be serialized by the caller.
type Store[K comparable, V any] struct {
	records   map[K]*Record[V]
	order     *list.List
	observers observerList[K]
}

// NewStore constructs an empty Store.
func NewStore[K comparable, V any](opts ...Option) *Store[K, V] {
	cfg := applyOptions(opts)
	s := &Store[K, V]{
		records: make(map[K]*Record[V]),
		order:   list.New(),
	}
	if observer := newActivityObserver(cfg, s.baseValue); observer != nil {
		s.observers.add(observer)
	}
	return s
}

// Add inserts key with value as its base. It fails with ErrDuplicateKey when
// the key already exists.
func (s *Store[K, V]) Add(key K, value V) error {
	if _, exists := s.records[key]; exists {
		return keyError("add", key, ErrDuplicateKey)
	}
	s.insert(key, value)
	s.observers.notify(Event[K]{Kind: EventKeyAdded, Key: key})
	return nil
}

// Remove drops the record for key, including every view override for it.
func (s *Store[K, V]) Remove(key K) bool {
	record, ok := mapx.Remove(s.records, key)
	if !ok {
		return false
	}
	s.order.Remove(record.elem)
	record.elem = nil
	s.observers.notify(Event[K]{Kind: EventKeyRemoved, Key: key})
	return true
}

// Clear removes every record, firing a removal event per key in store order.
func (s *Store[K, V]) Clear() {
	if len(s.records) == 0 {
		return
	}
	keys := s.keySnapshot()
	s.records = make(map[K]*Record[V])
	s.order.Init()
	for _, key := range keys {
		s.observers.notify(Event[K]{Kind: EventKeyRemoved, Key: key})
	}
}

// Get returns the base value for key or the zero value when missing.
// View overrides are never considered.
func (s *Store[K, V]) Get(key K) V {
	value, _ := s.TryGet(key)
	return value
}

// TryGet returns the base value for key and whether the key exists.
func (s *Store[K, V]) TryGet(key K) (V, bool) {
	record, ok := s.records[key]
	if !ok {
		var zero V
		return zero, false
	}
	return record.base, true
}

// Set writes the base value for key. Missing keys are created with no
// overrides; existing keys keep their overrides untouched.
func (s *Store[K, V]) Set(key K, value V) {
	record, ok := s.records[key]
	if !ok {
		s.insert(key, value)
		s.observers.notify(Event[K]{Kind: EventKeyAdded, Key: key})
		return
	}
	record.setBase(value)
	s.observers.notify(Event[K]{Kind: EventBaseChanged, Key: key})
}

// ContainsKey reports whether key exists.
func (s *Store[K, V]) ContainsKey(key K) bool {
	_, ok := s.records[key]
	return ok
}

// Len returns the number of keys.
func (s *Store[K, V]) Len() int {
	return len(s.records)
}

// Record exposes the overlay record for key for inspection.
func (s *Store[K, V]) Record(key K) (*Record[V], bool) {
	record, ok := s.records[key]
	return record, ok
}

// PurgeViewOverrides removes every override attached by view id without
// touching base values or removing records. It returns the number of
// overrides removed.
func (s *Store[K, V]) PurgeViewOverrides(id ViewID) int {
	return len(s.purgeView(id))
}

// Observe registers observer for store-level events (key added, key removed,
// base changed). The returned function unregisters it.
func (s *Store[K, V]) Observe(observer Observer[K]) func() {
	return s.observers.add(observer)
}

// createRecordWithOverride materializes key with base and immediately
// attaches override for view id, so observers see a fully formed record.
func (s *Store[K, V]) createRecordWithOverride(key K, base V, id ViewID, override V) (*Record[V], error) {
	if _, exists := s.records[key]; exists {
		return nil, ErrDuplicateKey
	}
	record := s.insert(key, base)
	record.setOverride(id, override)
	s.observers.notify(Event[K]{Kind: EventKeyAdded, Key: key})
	return record, nil
}

func (s *Store[K, V]) purgeView(id ViewID) []Pair[K, V] {
	var purged []Pair[K, V]
	for e := s.order.Front(); e != nil; e = e.Next() {
		key := e.Value.(K)
		if value, ok := s.records[key].removeOverride(id); ok {
			purged = append(purged, Pair[K, V]{Key: key, Value: value})
		}
	}
	return purged
}

func (s *Store[K, V]) baseValue(event Event[K]) any {
	if event.Kind == EventKeyRemoved {
		return nil
	}
	value, ok := s.TryGet(event.Key)
	if !ok {
		return nil
	}
	return value
}

func (s *Store[K, V]) insert(key K, base V) *Record[V] {
	record := newRecord(base)
	record.elem = s.order.PushBack(key)
	s.records[key] = record
	return record
}

func (s *Store[K, V]) keySnapshot() []K {
	keys := make([]K, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(K))
	}
	return keys
}
