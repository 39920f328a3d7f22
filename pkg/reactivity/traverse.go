package reactivity

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Traversable is a keyed value whose reads are tracked, such as *Object.
type Traversable interface {
	Keys() []string
	Get(key string) any
}

type visitKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// Traverse reads every value reachable from v so that an active effect
// subscribes to all of them. Traversable values are read key by key; other
// values are walked through pointers, interfaces, exported struct fields,
// maps, slices and arrays. Shared and cyclic references are visited once.
func Traverse(v any) {
	seen := mapset.NewThreadUnsafeSet[visitKey]()
	traverse(reflect.ValueOf(v), seen)
}

func traverse(rv reflect.Value, seen mapset.Set[visitKey]) {
	if !rv.IsValid() {
		return
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return
		}
	}

	if rv.Kind() == reflect.Interface {
		traverse(rv.Elem(), seen)
		return
	}

	if id, ok := identity(rv); ok && !seen.Add(id) {
		return
	}

	if rv.CanInterface() {
		if t, ok := rv.Interface().(Traversable); ok {
			for _, key := range t.Keys() {
				traverse(reflect.ValueOf(t.Get(key)), seen)
			}
			return
		}
	}

	switch rv.Kind() {
	case reflect.Pointer:
		traverse(rv.Elem(), seen)
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			traverse(iter.Value(), seen)
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			traverse(rv.Index(i), seen)
		}
	case reflect.Struct:
		typ := rv.Type()
		for i := range rv.NumField() {
			if typ.Field(i).IsExported() {
				traverse(rv.Field(i), seen)
			}
		}
	}
}

func identity(rv reflect.Value) (visitKey, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		return visitKey{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		return visitKey{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return visitKey{}, false
}
