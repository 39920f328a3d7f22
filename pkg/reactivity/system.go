// Package reactivity is a fine-grained dependency tracking engine.
//
// Effects record the (target, key) pairs they read through Track, and Trigger
// re-runs or schedules every effect subscribed to a pair when it is written.
// Computed values and watchers are built on the same two entry points.
//
// A ReactiveSystem is single-threaded: effects run one at a time on the
// goroutine that drives the system. Deferred work runs at microtask
// checkpoints, see Tick and DrainMicrotasks.
package reactivity

import (
	"errors"
	"fmt"
	"log/slog"
)

const DefaultMaxMicrotasks = 100_000

type Option func(*ReactiveSystem)

// WithLogger sets the structured logger. Defaults to a logger that discards.
func WithLogger(logger *slog.Logger) Option {
	return func(rs *ReactiveSystem) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

// WithInstrumentation installs hooks called on effect runs, triggers and
// job flushes. Defaults to no-op hooks.
func WithInstrumentation(instr Instrumentation) Option {
	return func(rs *ReactiveSystem) {
		if instr != nil {
			rs.instr = instr
		}
	}
}

// WithJobErrorHandler is called for every job that fails during a flush.
// Defaults to logging the failure at error level.
func WithJobErrorHandler(fn func(job *Job, err error)) Option {
	return func(rs *ReactiveSystem) {
		rs.onJobError = fn
	}
}

// WithMaxMicrotasks bounds how many microtasks one checkpoint may run.
func WithMaxMicrotasks(n int) Option {
	return func(rs *ReactiveSystem) {
		if n > 0 {
			rs.maxMicrotasks = n
		}
	}
}

// WithGoroutineCheck makes the system panic with ErrWrongGoroutine when it
// is driven from a goroutine other than the one that created it.
func WithGoroutineCheck() Option {
	return func(rs *ReactiveSystem) {
		rs.checkGoroutine = true
	}
}

type ReactiveSystem struct {
	// effect stack, the top is the effect Track attributes reads to
	effectStack  []*Effect
	nextEffectID uint64

	bucket *Bucket
	jobs   *JobQueue

	microtasks    []func() error
	draining      bool
	maxMicrotasks int

	logger     *slog.Logger
	instr      Instrumentation
	onJobError func(job *Job, err error)

	ownerGID       int64
	checkGoroutine bool
}

func NewReactiveSystem(opts ...Option) *ReactiveSystem {
	rs := &ReactiveSystem{
		bucket:        newBucket(),
		maxMicrotasks: DefaultMaxMicrotasks,
		logger:        slog.New(slog.DiscardHandler),
		instr:         nopInstrumentation{},
		ownerGID:      currentGID(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.onJobError == nil {
		rs.onJobError = func(job *Job, err error) {
			rs.logger.Error("job failed", "job", job.Name(), "error", err)
		}
	}
	rs.jobs = newJobQueue(rs)
	return rs
}

// ActiveEffect returns the effect currently running, or nil.
func (rs *ReactiveSystem) ActiveEffect() *Effect {
	if len(rs.effectStack) == 0 {
		return nil
	}
	return rs.effectStack[len(rs.effectStack)-1]
}

// Depth is the number of effects currently on the stack.
func (rs *ReactiveSystem) Depth() int {
	return len(rs.effectStack)
}

func (rs *ReactiveSystem) Bucket() *Bucket {
	return rs.bucket
}

func (rs *ReactiveSystem) Jobs() *JobQueue {
	return rs.jobs
}

func (rs *ReactiveSystem) Logger() *slog.Logger {
	return rs.logger
}

func (rs *ReactiveSystem) push(e *Effect) {
	rs.effectStack = append(rs.effectStack, e)
}

func (rs *ReactiveSystem) pop(e *Effect) {
	last := len(rs.effectStack) - 1
	if last < 0 || rs.effectStack[last] != e {
		panic(fmt.Sprintf("reactivity: effect stack corrupted, expected effect %d on top", e.id))
	}
	rs.effectStack[last] = nil
	rs.effectStack = rs.effectStack[:last]
}

// QueueMicrotask schedules fn for the next microtask checkpoint.
func (rs *ReactiveSystem) QueueMicrotask(fn func() error) {
	rs.assertOwner()
	rs.microtasks = append(rs.microtasks, fn)
}

// PendingMicrotasks reports how many microtasks are waiting.
func (rs *ReactiveSystem) PendingMicrotasks() int {
	return len(rs.microtasks)
}

// DrainMicrotasks runs queued microtasks in FIFO order until the queue is
// empty, including tasks queued by tasks. Every task runs even if an
// earlier one failed; the failures are joined. A nested call from inside a
// running microtask is a no-op, the outer checkpoint picks the work up.
func (rs *ReactiveSystem) DrainMicrotasks() error {
	rs.assertOwner()
	if rs.draining {
		return nil
	}
	rs.draining = true
	defer func() { rs.draining = false }()

	var errs []error
	ran := 0
	for len(rs.microtasks) > 0 {
		if ran >= rs.maxMicrotasks {
			errs = append(errs, fmt.Errorf("%w: %d tasks run, %d still queued", ErrMicrotaskOverflow, ran, len(rs.microtasks)))
			break
		}
		task := rs.microtasks[0]
		rs.microtasks[0] = nil
		rs.microtasks = rs.microtasks[1:]
		ran++
		if err := task(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(rs.microtasks) == 0 {
		rs.microtasks = nil
	}
	return errors.Join(errs...)
}

// Tick runs fn as one macrotask and then a microtask checkpoint, the way an
// event loop turn would. Deferred watchers and queued jobs settle before
// Tick returns.
func (rs *ReactiveSystem) Tick(fn func() error) error {
	var err error
	if fn != nil {
		err = fn()
	}
	return errors.Join(err, rs.DrainMicrotasks())
}
