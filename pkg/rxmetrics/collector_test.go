package rxmetrics

import (
	"errors"
	"testing"

	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := New("rx")
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	rs := reactivity.NewReactiveSystem(
		reactivity.WithInstrumentation(c),
		reactivity.WithJobErrorHandler(func(*reactivity.Job, error) {}),
	)
	obj := reactivity.NewObject(rs, map[string]any{"a": 1})

	fail := false
	_, err := reactivity.RegisterEffect(rs, func() (any, error) {
		obj.Get("a")
		if fail {
			return nil, errors.New("fail")
		}
		return nil, nil
	}, reactivity.EffectOptions{})
	require.NoError(t, err)

	fail = true
	assert.Error(t, obj.Set("a", 2))

	rs.Jobs().Enqueue(reactivity.NewJob("ok", func() error { return nil }))
	rs.Jobs().Enqueue(reactivity.NewJob("bad", func() error { return errors.New("bad") }))
	assert.Error(t, rs.DrainMicrotasks())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.effectRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.effectRuns.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.triggers))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notified))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.jobsRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsFailed))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}
