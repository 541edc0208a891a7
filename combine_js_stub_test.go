//go:build !js_eval

package overlay

import (
	"errors"
	"testing"
)

func TestJSCombinerUnavailable(t *testing.T) {
	combiner, err := NewJSCombiner[int]("base + override")
	if combiner != nil {
		t.Fatalf("expected no combiner without js_eval")
	}
	if !errors.Is(err, ErrJSUnavailable) {
		t.Fatalf("expected ErrJSUnavailable, got %v", err)
	}
	if jsCombinerAvailable() {
		t.Fatalf("expected js combiner to be unavailable")
	}
}
