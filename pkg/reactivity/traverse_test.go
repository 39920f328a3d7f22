package reactivity_test

import (
	"testing"

	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	Name   string
	Next   *node
	Data   *reactivity.Object
	Tags   []*reactivity.Object
	Meta   map[string]any
	Any    any
	hidden *reactivity.Object
}

// should track every reachable reactive field through plain Go values
func TestTraverse(t *testing.T) {
	rs := reactivity.NewReactiveSystem()
	data := reactivity.NewObject(rs, map[string]any{"x": 1})
	tag := reactivity.NewObject(rs, map[string]any{"label": "a"})
	meta := reactivity.NewObject(rs, map[string]any{"size": 3})
	boxed := reactivity.NewObject(rs, map[string]any{"v": true})
	hidden := reactivity.NewObject(rs, map[string]any{"secret": 0})

	second := &node{Name: "second", Meta: map[string]any{"m": meta}, Any: boxed}
	first := &node{
		Name:   "first",
		Next:   second,
		Data:   data,
		Tags:   []*reactivity.Object{tag, nil},
		hidden: hidden,
	}
	second.Next = first

	runs := 0
	_, err := reactivity.RegisterEffect(rs, func() (any, error) {
		runs++
		reactivity.Traverse(first)
		return nil, nil
	}, reactivity.EffectOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, reactivity.Subscribers(rs, data, "x"))
	assert.Equal(t, 1, reactivity.Subscribers(rs, tag, "label"))
	assert.Equal(t, 1, reactivity.Subscribers(rs, meta, "size"))
	assert.Equal(t, 1, reactivity.Subscribers(rs, boxed, "v"))
	assert.Equal(t, 0, reactivity.Subscribers(rs, hidden, "secret"))

	for _, w := range []struct {
		obj *reactivity.Object
		key string
	}{{data, "x"}, {tag, "label"}, {meta, "size"}, {boxed, "v"}} {
		require.NoError(t, w.obj.Set(w.key, 42))
	}
	assert.Equal(t, 5, runs)

	require.NoError(t, hidden.Set("secret", 1))
	assert.Equal(t, 5, runs)
}

// should visit shared objects once and stop at leaves
func TestTraverseLeaves(t *testing.T) {
	assert.NotPanics(t, func() {
		reactivity.Traverse(nil)
		reactivity.Traverse(42)
		reactivity.Traverse("text")
		reactivity.Traverse((*node)(nil))
		reactivity.Traverse([]int{1, 2, 3})
		reactivity.Traverse(map[string]any{"nil": nil})
	})

	rs := reactivity.NewReactiveSystem()
	shared := reactivity.NewObject(rs, map[string]any{"n": 1})
	loop := map[string]any{}
	loop["self"] = loop
	loop["a"] = shared
	loop["b"] = []any{shared, shared}

	e, err := reactivity.RegisterEffect(rs, func() (any, error) {
		reactivity.Traverse(loop)
		return nil, nil
	}, reactivity.EffectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Deps())
}
