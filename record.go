package overlay

import (
	"container/list"
	"fmt"

	"github.com/goliatone/go-overlay/pkg/mapx"
	"github.com/google/uuid"
)

// ViewID identifies a View within overlay records. IDs are random UUIDs and
// carry no meaning outside override lookups.
type ViewID uuid.UUID

// NewViewID returns a fresh, process-unique identity.
func NewViewID() ViewID {
	return ViewID(uuid.New())
}

// ParseViewID decodes the canonical string form produced by ViewID.String.
func ParseViewID(value string) (ViewID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return ViewID{}, fmt.Errorf("overlay: parse view id %q: %w", value, err)
	}
	return ViewID(id), nil
}

func (id ViewID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText encodes the canonical string form.
func (id ViewID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText decodes the canonical string form.
func (id *ViewID) UnmarshalText(data []byte) error {
	parsed, err := ParseViewID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsZero reports whether id is the nil UUID.
func (id ViewID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// Record holds the base value of a single key plus the sparse set of view
// overrides attached to it. A view appears in the override set only while it
// has an explicit value for the key.
type Record[V any] struct {
	base      V
	overrides map[ViewID]V
	elem      *list.Element
}

func newRecord[V any](base V) *Record[V] {
	return &Record[V]{base: base}
}

// Base returns the canonical value owned by the store.
func (r *Record[V]) Base() V {
	return r.base
}

// Override returns the value view id attached to the key, if any.
func (r *Record[V]) Override(id ViewID) (V, bool) {
	value, ok := r.overrides[id]
	return value, ok
}

// HasOverride reports whether view id has an explicit value for the key.
func (r *Record[V]) HasOverride(id ViewID) bool {
	_, ok := r.overrides[id]
	return ok
}

// Overrides returns a copy of the override set keyed by view identity.
func (r *Record[V]) Overrides() map[ViewID]V {
	if len(r.overrides) == 0 {
		return nil
	}
	out := make(map[ViewID]V, len(r.overrides))
	for id, value := range r.overrides {
		out[id] = value
	}
	return out
}

// Len returns the number of views overriding the key.
func (r *Record[V]) Len() int {
	return len(r.overrides)
}

func (r *Record[V]) setBase(value V) {
	r.base = value
}

func (r *Record[V]) setOverride(id ViewID, value V) {
	if r.overrides == nil {
		r.overrides = make(map[ViewID]V, 1)
	}
	r.overrides[id] = value
}

func (r *Record[V]) removeOverride(id ViewID) (V, bool) {
	value, ok := mapx.Remove(r.overrides, id)
	if ok && len(r.overrides) == 0 {
		r.overrides = nil
	}
	return value, ok
}

// combined resolves the value seen by view id, reporting whether the view
// supplied an override.
func (r *Record[V]) combined(id ViewID, combiner Combiner[V]) (V, bool) {
	override, ok := r.overrides[id]
	if !ok {
		return r.base, false
	}
	return combiner.Combine(r.base, override), true
}
