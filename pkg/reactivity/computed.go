package reactivity

import "fmt"

const computedValueKey = "value"

// ComputedValue is a lazily evaluated, cached derivation. It subscribes to
// whatever its getter reads and publishes its own "value" key to whoever
// reads it.
type ComputedValue[T any] struct {
	rs     *ReactiveSystem
	effect *Effect
	value  T
	dirty  bool
}

// Computed creates a derived value over getter. The getter does not run
// until Value is first called, and afterwards only when a dependency was
// written since the last computation.
func Computed[T any](rs *ReactiveSystem, getter func() (T, error)) *ComputedValue[T] {
	c := &ComputedValue[T]{
		rs:    rs,
		dirty: true,
	}
	c.effect, _ = RegisterEffect(rs, func() (any, error) {
		return getter()
	}, EffectOptions{
		Lazy: true,
		Scheduler: func(*Effect) error {
			c.dirty = true
			return Trigger(rs, c, computedValueKey)
		},
	})
	return c
}

// Value returns the cached value, recomputing it first if it is dirty. A
// failed computation leaves the value dirty so the next read retries.
func (c *ComputedValue[T]) Value() (T, error) {
	Track(c.rs, c, computedValueKey)
	if !c.dirty {
		return c.value, nil
	}

	v, err := c.effect.Run()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("error while computing value: %w", err)
	}
	t, ok := v.(T)
	if !ok && v != nil {
		panic(fmt.Sprintf("reactivity: computed getter returned %T", v))
	}
	c.value = t
	c.dirty = false
	return c.value, nil
}

// Dirty reports whether the next Value call will run the getter.
func (c *ComputedValue[T]) Dirty() bool {
	return c.dirty
}

func (c *ComputedValue[T]) Effect() *Effect {
	return c.effect
}
