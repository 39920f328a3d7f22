package reactivity_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should keep independent systems from seeing each other's effects
func TestSystemsAreIndependent(t *testing.T) {
	rs1 := reactivity.NewReactiveSystem()
	rs2 := reactivity.NewReactiveSystem()
	obj := reactivity.NewObject(rs1, map[string]any{"a": 1})

	_, err := reactivity.RegisterEffect(rs1, func() (any, error) {
		assert.Nil(t, rs2.ActiveEffect())
		reactivity.Track(rs2, obj, "a")
		return obj.Get("a"), nil
	}, reactivity.EffectOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, rs1.Bucket().Len())
	assert.Equal(t, 0, rs2.Bucket().Len())
}

// should drain microtasks queued during a tick before returning
func TestTick(t *testing.T) {
	rs := reactivity.NewReactiveSystem()

	var order []string
	err := rs.Tick(func() error {
		rs.QueueMicrotask(func() error {
			order = append(order, "micro 1")
			rs.QueueMicrotask(func() error {
				order = append(order, "micro 3")
				return nil
			})
			return nil
		})
		rs.QueueMicrotask(func() error {
			order = append(order, "micro 2")
			return nil
		})
		order = append(order, "macro")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"macro", "micro 1", "micro 2", "micro 3"}, order)
	assert.Equal(t, 0, rs.PendingMicrotasks())
}

// should join the macrotask error with microtask errors
func TestTickErrors(t *testing.T) {
	rs := reactivity.NewReactiveSystem()
	macro := errors.New("macro")
	micro := errors.New("micro")

	ran := false
	err := rs.Tick(func() error {
		rs.QueueMicrotask(func() error { return micro })
		rs.QueueMicrotask(func() error {
			ran = true
			return rs.DrainMicrotasks()
		})
		return macro
	})
	assert.ErrorIs(t, err, macro)
	assert.ErrorIs(t, err, micro)
	assert.True(t, ran)
	assert.NoError(t, rs.Tick(nil))
}

// should log engine activity through the configured logger
func TestSystemLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rs := reactivity.NewReactiveSystem(reactivity.WithLogger(logger))
	assert.Same(t, logger, rs.Logger())

	obj := reactivity.NewObject(rs, map[string]any{"a": 1})
	_, err := reactivity.RegisterEffect(rs, func() (any, error) {
		return obj.Get("a"), nil
	}, reactivity.EffectOptions{})
	require.NoError(t, err)
	require.NoError(t, obj.Set("a", 2))

	rs.Jobs().Enqueue(reactivity.NewJob("broken", func() error { return errors.New("broken") }))
	assert.Error(t, rs.DrainMicrotasks())

	out := buf.String()
	assert.Contains(t, out, "effect registered")
	assert.Contains(t, out, "trigger")
	assert.Contains(t, out, "job failed")
	assert.Contains(t, out, "job=broken")
}

type recordingInstrumentation struct {
	effectRuns int
	triggered  map[string]int
	flushes    int
	failed     int
}

func (r *recordingInstrumentation) EffectRan(*reactivity.Effect, time.Duration, error) {
	r.effectRuns++
}

func (r *recordingInstrumentation) Triggered(key string, notified int) {
	r.triggered[key] += notified
}

func (r *recordingInstrumentation) JobsFlushed(_, failed int, _ time.Duration) {
	r.flushes++
	r.failed += failed
}

func TestSystemInstrumentation(t *testing.T) {
	instr := &recordingInstrumentation{triggered: map[string]int{}}
	rs := reactivity.NewReactiveSystem(reactivity.WithInstrumentation(instr))
	obj := reactivity.NewObject(rs, map[string]any{"count": 1})

	_, err := reactivity.Watch(rs, func() (int, error) {
		return reactivity.Field[int](obj, "count"), nil
	}, func(int, int, func(func())) error { return nil }, reactivity.WatchOptions{Flush: reactivity.FlushPost})
	require.NoError(t, err)

	require.NoError(t, rs.Tick(func() error {
		if err := obj.Set("count", 2); err != nil {
			return err
		}
		return obj.Set("count", 3)
	}))

	assert.Equal(t, 2, instr.effectRuns)
	assert.Equal(t, 2, instr.triggered["count"])
	assert.Equal(t, 1, instr.flushes)
	assert.Equal(t, 0, instr.failed)
}

func TestForGoroutine(t *testing.T) {
	rs := reactivity.ForGoroutine()
	defer reactivity.ReleaseGoroutine()
	assert.Same(t, rs, reactivity.ForGoroutine())

	other := make(chan *reactivity.ReactiveSystem)
	go func() {
		defer reactivity.ReleaseGoroutine()
		other <- reactivity.ForGoroutine()
	}()
	assert.NotSame(t, rs, <-other)
}

// should refuse to be driven from another goroutine when checked
func TestGoroutineCheck(t *testing.T) {
	rs := reactivity.NewReactiveSystem(reactivity.WithGoroutineCheck())
	obj := reactivity.NewObject(rs, map[string]any{"a": 1})
	assert.NotPanics(t, func() { obj.Get("a") })

	recovered := make(chan any)
	go func() {
		defer func() { recovered <- recover() }()
		obj.Get("a")
	}()
	assert.Equal(t, reactivity.ErrWrongGoroutine, <-recovered)
}
