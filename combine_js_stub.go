//go:build !js_eval

package overlay

// NewJSCombiner is unavailable without the js_eval build tag.
func NewJSCombiner[V any](expression string, opts ...CombinerOption) (Combiner[V], error) {
	_ = applyCombinerOptions(opts)
	return nil, wrapCombineError("js", expression, ErrJSUnavailable)
}

func jsCombinerAvailable() bool {
	return false
}
