package reactivity

import (
	"fmt"
	"time"
)

// EffectFunc is the body of an effect. Its return value is handed back by
// Effect.Run, which is how Computed reads its getter's result.
type EffectFunc func() (any, error)

// Scheduler replaces the default "re-run now" reaction of a triggered
// effect. It decides whether and when to call Effect.Run.
type Scheduler func(e *Effect) error

// EffectOptions configures RegisterEffect. The zero value registers an
// eager effect that re-runs synchronously when triggered.
type EffectOptions struct {
	// Lazy skips the initial run; the caller runs the handle when it wants.
	Lazy bool
	// Scheduler, when set, is called instead of re-running on trigger.
	Scheduler Scheduler
}

// Effect is a re-runnable computation that subscribes to every
// (target, key) pair it reads.
type Effect struct {
	id   uint64
	rs   *ReactiveSystem
	fn   EffectFunc
	opts EffectOptions

	// every dependency set this effect is a member of, so that a run can
	// unsubscribe from all of them before re-tracking
	deps []DependencySet
}

// RegisterEffect wraps fn in an effect. Unless opts.Lazy is set, the effect
// runs once before RegisterEffect returns and the error of that run is
// returned alongside the handle.
func RegisterEffect(rs *ReactiveSystem, fn EffectFunc, opts EffectOptions) (*Effect, error) {
	rs.nextEffectID++
	e := &Effect{
		id:   rs.nextEffectID,
		rs:   rs,
		fn:   fn,
		opts: opts,
	}
	rs.logger.Debug("effect registered", "effect", e.id, "lazy", opts.Lazy, "scheduled", opts.Scheduler != nil)

	if opts.Lazy {
		return e, nil
	}
	if _, err := e.Run(); err != nil {
		return e, fmt.Errorf("error while running effect %d: %w", e.id, err)
	}
	return e, nil
}

func (e *Effect) ID() uint64 {
	return e.id
}

// Deps reports how many dependency sets the effect currently belongs to.
func (e *Effect) Deps() int {
	return len(e.deps)
}

func (e *Effect) Options() EffectOptions {
	return e.opts
}

// Run re-runs the effect: it drops all current subscriptions, makes itself
// the active effect, calls the body and restores the previous active effect,
// even when the body fails or panics.
func (e *Effect) Run() (v any, err error) {
	rs := e.rs
	rs.assertOwner()

	e.cleanup()

	start := time.Now()
	rs.push(e)
	defer func() {
		rs.pop(e)
		rs.instr.EffectRan(e, time.Since(start), err)
	}()

	return e.fn()
}

func (e *Effect) cleanup() {
	for i, deps := range e.deps {
		deps.Remove(e)
		e.deps[i] = nil
	}
	e.deps = e.deps[:0]
}

// notify is what Trigger does for each subscriber.
func (e *Effect) notify() error {
	if e.opts.Scheduler != nil {
		return e.opts.Scheduler(e)
	}
	_, err := e.Run()
	return err
}
