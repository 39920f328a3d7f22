package reactivity

import "slices"

// Backend is raw keyed storage. It knows nothing about tracking; Object
// adds that at its boundary.
type Backend interface {
	Load(key string) (any, bool)
	Store(key string, value any)
	Delete(key string)
	Keys() []string
}

// MapBackend is a Backend over a plain map.
type MapBackend map[string]any

func (m MapBackend) Load(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapBackend) Store(key string, value any) {
	m[key] = value
}

func (m MapBackend) Delete(key string) {
	delete(m, key)
}

// Keys are returned sorted.
func (m MapBackend) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Object is a reactive record: every read tracks and every write triggers
// the key it touches.
type Object struct {
	rs      *ReactiveSystem
	backend Backend
}

// NewObject wraps a copy of fields in a MapBackend.
func NewObject(rs *ReactiveSystem, fields map[string]any) *Object {
	m := make(MapBackend, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return WrapBackend(rs, m)
}

func WrapBackend(rs *ReactiveSystem, backend Backend) *Object {
	return &Object{rs: rs, backend: backend}
}

func (o *Object) Get(key string) any {
	Track(o.rs, o, key)
	v, _ := o.backend.Load(key)
	return v
}

func (o *Object) Has(key string) bool {
	Track(o.rs, o, key)
	_, ok := o.backend.Load(key)
	return ok
}

// Set stores value and triggers key, whether or not the value changed. The
// error is whatever the notified effects returned.
func (o *Object) Set(key string, value any) error {
	o.backend.Store(key, value)
	return Trigger(o.rs, o, key)
}

func (o *Object) Delete(key string) error {
	o.backend.Delete(key)
	return Trigger(o.rs, o, key)
}

// Keys lists the stored keys without tracking them.
func (o *Object) Keys() []string {
	return o.backend.Keys()
}

func (o *Object) Backend() Backend {
	return o.backend
}

// Field reads key from o as a T, returning the zero value when the key is
// missing or holds another type.
func Field[T any](o *Object, key string) T {
	v, _ := o.Get(key).(T)
	return v
}
