package overlay

// View is a caller-facing window over a shared Store. Reads combine the base
// value with this view's override, writes only touch this view's overrides.
// Any number of views may share one Store; each has its own ViewID.
//
// Like Store, View performs no locking.
type View[K comparable, V any] struct {
	id            ViewID
	store         *Store[K, V]
	combiner      Combiner[V]
	serializeBase bool
	cfg           config
	observers     observerList[K]
}

// NewView constructs a root view backed by a fresh, privately allocated
// Store. Options apply to both the store and the view. A nil combiner falls
// back to Replace.
func NewView[K comparable, V any](combiner Combiner[V], opts ...Option) *View[K, V] {
	cfg := applyOptions(opts)
	return newView(NewStore[K, V](opts...), combiner, cfg, true)
}

// Attach constructs a view over an existing store. A nil store is replaced
// by a fresh one.
func Attach[K comparable, V any](store *Store[K, V], combiner Combiner[V], opts ...Option) *View[K, V] {
	cfg := applyOptions(opts)
	if store == nil {
		return newView(NewStore[K, V](opts...), combiner, cfg, true)
	}
	return newView(store, combiner, cfg, false)
}

// Sibling constructs a view sharing this view's store and combiner under a
// new identity with no overrides. Activity configuration is inherited unless
// opts replace it.
func (v *View[K, V]) Sibling(opts ...Option) *View[K, V] {
	cfg := v.cfg
	cfg.serializeBase = nil
	return newView(v.store, v.combiner, cfg.with(opts), false)
}

func newView[K comparable, V any](store *Store[K, V], combiner Combiner[V], cfg config, serializeBase bool) *View[K, V] {
	return newViewWithID(NewViewID(), store, combiner, cfg, serializeBase)
}

func newViewWithID[K comparable, V any](id ViewID, store *Store[K, V], combiner Combiner[V], cfg config, serializeBase bool) *View[K, V] {
	if combiner == nil {
		combiner = Replace[V]()
	}
	if cfg.serializeBase != nil {
		serializeBase = *cfg.serializeBase
	}
	v := &View[K, V]{
		id:            id,
		store:         store,
		combiner:      combiner,
		serializeBase: serializeBase,
		cfg:           cfg,
	}
	if observer := newActivityObserver(cfg, v.overrideValue); observer != nil {
		v.observers.add(observer)
	}
	return v
}

// ID returns the view identity.
func (v *View[K, V]) ID() ViewID {
	return v.id
}

// Store returns the shared base store.
func (v *View[K, V]) Store() *Store[K, V] {
	return v.store
}

// Combiner returns the combine behaviour applied on reads.
func (v *View[K, V]) Combiner() Combiner[V] {
	return v.combiner
}

// SerializesBase reports whether Document includes the store contents.
func (v *View[K, V]) SerializesBase() bool {
	return v.serializeBase
}

// Add creates key in the shared store with the zero value as base and sets
// this view's override to value. It fails with ErrDuplicateKey when the key
// already exists.
func (v *View[K, V]) Add(key K, value V) error {
	var base V
	return v.AddWithBase(key, value, base)
}

// AddWithBase is Add with an explicit initial base value. Either the record
// and override are both created or nothing changes.
func (v *View[K, V]) AddWithBase(key K, value, base V) error {
	if _, err := v.store.createRecordWithOverride(key, base, v.id, value); err != nil {
		return keyError("add", key, err)
	}
	v.observers.notify(Event[K]{Kind: EventOverrideSet, Key: key, View: v.id})
	return nil
}

// Remove drops this view's override for key. The key, its base value and
// other views' overrides are untouched. It reports whether an override existed.
func (v *View[K, V]) Remove(key K) bool {
	record, ok := v.store.records[key]
	if !ok {
		return false
	}
	value, removed := record.removeOverride(v.id)
	if !removed {
		return false
	}
	v.observers.notify(Event[K]{Kind: EventOverrideRemoved, Key: key, View: v.id, Removed: value})
	return true
}

// Clear drops every override owned by this view. Store keys, base values and
// other views' overrides are untouched.
func (v *View[K, V]) Clear() {
	for _, pair := range v.store.purgeView(v.id) {
		v.observers.notify(Event[K]{Kind: EventOverrideRemoved, Key: pair.Key, View: v.id, Removed: pair.Value})
	}
}

// Get returns the combined value for key, the base value when this view has
// no override, or the zero value when the key does not exist.
func (v *View[K, V]) Get(key K) V {
	value, _ := v.TryGet(key)
	return value
}

// Set writes this view's override for an existing key. It fails with
// ErrKeyNotFound when the key is absent from the store.
func (v *View[K, V]) Set(key K, value V) error {
	record, ok := v.store.records[key]
	if !ok {
		return keyError("set", key, ErrKeyNotFound)
	}
	record.setOverride(v.id, value)
	v.observers.notify(Event[K]{Kind: EventOverrideSet, Key: key, View: v.id})
	return nil
}

// TryGet reports store-level presence of key together with the combined
// value (the base value when this view has no override).
func (v *View[K, V]) TryGet(key K) (V, bool) {
	record, ok := v.store.records[key]
	if !ok {
		var zero V
		return zero, false
	}
	value, _ := record.combined(v.id, v.combiner)
	return value, true
}

// TryGetOwnOverride returns this view's raw override for key, reporting false
// when the view only sees the shared base.
func (v *View[K, V]) TryGetOwnOverride(key K) (V, bool) {
	record, ok := v.store.records[key]
	if !ok {
		var zero V
		return zero, false
	}
	return record.Override(v.id)
}

// GetOwnOverride returns this view's raw override or the zero value.
func (v *View[K, V]) GetOwnOverride(key K) V {
	value, _ := v.TryGetOwnOverride(key)
	return value
}

// HasOverride reports whether this view customized key.
func (v *View[K, V]) HasOverride(key K) bool {
	_, ok := v.TryGetOwnOverride(key)
	return ok
}

// ContainsKey reports store-level presence, regardless of overrides.
func (v *View[K, V]) ContainsKey(key K) bool {
	return v.store.ContainsKey(key)
}

// Len returns the number of keys visible through the view.
func (v *View[K, V]) Len() int {
	return v.store.Len()
}

// OverrideCount returns the number of keys this view overrides.
func (v *View[K, V]) OverrideCount() int {
	count := 0
	for _, record := range v.store.records {
		if record.HasOverride(v.id) {
			count++
		}
	}
	return count
}

// Observe registers observer for this view's override events. The returned
// function unregisters it.
func (v *View[K, V]) Observe(observer Observer[K]) func() {
	return v.observers.add(observer)
}

func (v *View[K, V]) overrideValue(event Event[K]) any {
	if event.Kind != EventOverrideSet {
		return nil
	}
	value, ok := v.TryGetOwnOverride(event.Key)
	if !ok {
		return nil
	}
	return value
}
