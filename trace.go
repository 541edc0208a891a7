package overlay

import "encoding/json"

// Trace explains how a view resolved a key: the shared base, the view's own
// override and the combined result.
type Trace[K comparable, V any] struct {
	Key         K      `json:"key"`
	View        ViewID `json:"view_id"`
	Found       bool   `json:"found"`
	Base        V      `json:"base"`
	HasOverride bool   `json:"has_override"`
	Override    V      `json:"override"`
	Value       V      `json:"value"`
	// Overrides counts every view customizing the key, this one included.
	Overrides int `json:"overrides"`
}

// Trace reports the layers behind Get(key).
func (v *View[K, V]) Trace(key K) Trace[K, V] {
	trace := Trace[K, V]{Key: key, View: v.id}
	record, ok := v.store.records[key]
	if !ok {
		return trace
	}
	trace.Found = true
	trace.Base = record.base
	trace.Override, trace.HasOverride = record.Override(v.id)
	trace.Value, _ = record.combined(v.id, v.combiner)
	trace.Overrides = record.Len()
	return trace
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace[K, V]) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON[K comparable, V any](payload []byte) (Trace[K, V], error) {
	var trace Trace[K, V]
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace[K, V]{}, err
	}
	return trace, nil
}
