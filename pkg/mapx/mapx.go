// Package mapx holds small helpers for built-in maps.
package mapx

// Remove deletes key from m and returns the value it held. The boolean is
// false, and the value the zero value, when key was not present.
func Remove[K comparable, V any](m map[K]V, key K) (V, bool) {
	value, ok := m[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(m, key)
	return value, true
}
