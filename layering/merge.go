// Package layering deep merges structured values where a stronger layer keeps
// its explicit settings and a weaker layer fills whatever the stronger one
// leaves unset (nil pointers, nil maps, nil slices, nil interfaces).
package layering

import "reflect"

// MergeLayers composes values ordered from strongest to weakest and returns a
// new value; none of the inputs are mutated.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := cloneValue(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(layers[i]), merged)
	}
	return asType[T](merged)
}

// Clone returns a deep copy of value, detaching maps, slices and pointers.
func Clone[T any](value T) T {
	return asType[T](cloneValue(reflect.ValueOf(value)))
}

func asType[T any](value reflect.Value) T {
	var zero T
	if !value.IsValid() {
		return zero
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	if value.Type() == target {
		return value.Interface().(T)
	}
	out := reflect.New(target).Elem()
	out.Set(value.Convert(target))
	return out.Interface().(T)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}
	if !weak.IsValid() {
		return cloneValue(strong)
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return fill(strong, weak)
		}
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(mergeValue(strong.Elem(), elemOf(weak, reflect.Pointer)))
		return out
	case reflect.Interface:
		if strong.IsNil() {
			return fill(strong, weak)
		}
		merged := mergeValue(strong.Elem(), elemOf(weak, reflect.Interface))
		out := reflect.New(strong.Type()).Elem()
		out.Set(merged)
		return out
	case reflect.Struct:
		out := reflect.New(strong.Type()).Elem()
		sameType := weak.IsValid() && weak.Type() == strong.Type()
		for i := 0; i < strong.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if sameType {
				weakField = weak.Field(i)
			}
			field.Set(mergeValue(strong.Field(i), weakField))
		}
		return out
	case reflect.Map:
		if strong.IsNil() {
			return fill(strong, weak)
		}
		out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Type() == strong.Type() && !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			existing := out.MapIndex(iter.Key())
			if existing.IsValid() {
				out.SetMapIndex(iter.Key(), mergeValue(iter.Value(), existing))
				continue
			}
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Array:
		out := reflect.New(strong.Type()).Elem()
		sameType := weak.IsValid() && weak.Type() == strong.Type()
		for i := 0; i < strong.Len(); i++ {
			var weakElem reflect.Value
			if sameType {
				weakElem = weak.Index(i)
			}
			out.Index(i).Set(mergeValue(strong.Index(i), weakElem))
		}
		return out
	case reflect.Slice:
		if strong.IsNil() {
			return fill(strong, weak)
		}
		return cloneValue(strong)
	default:
		return cloneValue(strong)
	}
}

// fill returns a copy of weak when it can stand in for the unset strong value,
// otherwise the zero value of strong's type.
func fill(strong, weak reflect.Value) reflect.Value {
	if weak.IsValid() && weak.Type() == strong.Type() {
		return cloneValue(weak)
	}
	return reflect.Zero(strong.Type())
}

func elemOf(value reflect.Value, kind reflect.Kind) reflect.Value {
	if !value.IsValid() || value.Kind() != kind || value.IsNil() {
		return reflect.Value{}
	}
	return value.Elem()
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Interface:
		out := reflect.New(v.Type()).Elem()
		if v.IsNil() {
			return out
		}
		out.Set(cloneValue(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(cloneValue(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
