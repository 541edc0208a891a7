package overlay

import (
	"fmt"
	"math"
	"reflect"

	"github.com/goliatone/go-overlay/layering"
	"golang.org/x/exp/constraints"
)

// Combiner merges a base value with a view override into the value a view
// reads. Implementations must be deterministic and free of side effects on
// their inputs; they are only invoked when an override exists.
type Combiner[V any] interface {
	Combine(base, override V) V
}

// CombineFunc adapts a function to Combiner.
type CombineFunc[V any] func(base, override V) V

// Combine implements Combiner.
func (f CombineFunc[V]) Combine(base, override V) V {
	return f(base, override)
}

// Number is satisfied by the built-in integer and floating point types.
type Number interface {
	constraints.Integer | constraints.Float
}

// Replace returns a combiner where the override hides the base value.
func Replace[V any]() Combiner[V] {
	return CombineFunc[V](func(_, override V) V {
		return override
	})
}

// Sum returns a combiner adding the override to the base value, modelling a
// stat modified by a per-source bonus.
func Sum[V Number]() Combiner[V] {
	return CombineFunc[V](func(base, override V) V {
		return base + override
	})
}

// Product returns a combiner scaling the base value by the override.
func Product[V Number]() Combiner[V] {
	return CombineFunc[V](func(base, override V) V {
		return base * override
	})
}

// Max returns a combiner yielding the larger of base and override.
func Max[V constraints.Ordered]() Combiner[V] {
	return CombineFunc[V](func(base, override V) V {
		return max(base, override)
	})
}

// Min returns a combiner yielding the smaller of base and override.
func Min[V constraints.Ordered]() Combiner[V] {
	return CombineFunc[V](func(base, override V) V {
		return min(base, override)
	})
}

// Merge returns a combiner that deep merges structured values: fields set on
// the override win while nil pointers, nil maps and nil slices fall back to
// the base. Map entries are merged key by key. Neither input is mutated.
func Merge[V any]() Combiner[V] {
	return CombineFunc[V](func(base, override V) V {
		return layering.MergeLayers(override, base)
	})
}

// convertResult coerces an expression engine result into V. Numeric results
// are converted between numeric kinds since engines widen to int64/float64;
// a conversion that would drop a fraction or overflow V is an error.
func convertResult[V any](value any) (V, error) {
	var zero V
	if typed, ok := value.(V); ok {
		return typed, nil
	}
	target := reflect.TypeOf((*V)(nil)).Elem()
	if value == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return zero, nil
		}
		return zero, fmt.Errorf("cannot use nil result as %s", target)
	}
	rv := reflect.ValueOf(value)
	if isNumericKind(rv.Kind()) && isNumericKind(target.Kind()) {
		if err := checkNumeric(rv, target); err != nil {
			return zero, err
		}
		return rv.Convert(target).Interface().(V), nil
	}
	if rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() {
		return rv.Convert(target).Interface().(V), nil
	}
	return zero, fmt.Errorf("cannot use %T result as %s", value, target)
}

// checkNumeric reports whether rv converts to target without losing a
// fraction or wrapping around.
func checkNumeric(rv reflect.Value, target reflect.Type) error {
	probe := reflect.New(target).Elem()
	switch {
	case isFloatKind(rv.Kind()):
		f := rv.Float()
		switch {
		case isFloatKind(target.Kind()):
			if !math.IsInf(f, 0) && !math.IsNaN(f) && probe.OverflowFloat(f) {
				return fmt.Errorf("result %v overflows %s", f, target)
			}
			return nil
		case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
			return fmt.Errorf("result %v is not a whole number for %s", f, target)
		case isUintKind(target.Kind()):
			if f < 0 || f >= math.MaxUint64 || probe.OverflowUint(uint64(f)) {
				return fmt.Errorf("result %v overflows %s", f, target)
			}
		default:
			if f < math.MinInt64 || f >= math.MaxInt64 || probe.OverflowInt(int64(f)) {
				return fmt.Errorf("result %v overflows %s", f, target)
			}
		}
	case isUintKind(rv.Kind()):
		u := rv.Uint()
		switch {
		case isFloatKind(target.Kind()):
			return nil
		case isUintKind(target.Kind()):
			if probe.OverflowUint(u) {
				return fmt.Errorf("result %d overflows %s", u, target)
			}
		default:
			if u > math.MaxInt64 || probe.OverflowInt(int64(u)) {
				return fmt.Errorf("result %d overflows %s", u, target)
			}
		}
	default:
		n := rv.Int()
		switch {
		case isFloatKind(target.Kind()):
			return nil
		case isUintKind(target.Kind()):
			if n < 0 || probe.OverflowUint(uint64(n)) {
				return fmt.Errorf("result %d overflows %s", n, target)
			}
		default:
			if probe.OverflowInt(n) {
				return fmt.Errorf("result %d overflows %s", n, target)
			}
		}
	}
	return nil
}

func isFloatKind(kind reflect.Kind) bool {
	return kind == reflect.Float32 || kind == reflect.Float64
}

func isUintKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isNumericKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
