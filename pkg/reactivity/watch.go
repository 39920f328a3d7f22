package reactivity

import "fmt"

// FlushMode controls when a watcher's callback runs after a trigger.
type FlushMode string

const (
	// FlushSync runs the callback inline with the write that triggered it.
	FlushSync FlushMode = "sync"
	// FlushPost defers the callback to the job queue, so several writes in
	// one macrotask produce a single callback.
	FlushPost FlushMode = "post"
)

type WatchOptions struct {
	// Immediate calls the callback once at registration with the initial
	// value and a zero old value.
	Immediate bool
	// Flush defaults to FlushSync. Other values are rejected by Watch.
	Flush FlushMode
}

// WatchCallback receives the new and previous values. onInvalidate
// registers a hook that runs right before the next callback, which lets
// work started by this call notice it has been superseded.
type WatchCallback[T any] func(newValue, oldValue T, onInvalidate func(hook func())) error

type Watcher[T any] struct {
	rs       *ReactiveSystem
	effect   *Effect
	job      *Job
	callback WatchCallback[T]
	opts     WatchOptions

	oldValue   T
	invalidate func()
}

// Watch calls cb whenever something getter reads changes.
func Watch[T any](rs *ReactiveSystem, getter func() (T, error), cb WatchCallback[T], opts WatchOptions) (*Watcher[T], error) {
	switch opts.Flush {
	case "":
		opts.Flush = FlushSync
	case FlushSync, FlushPost:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFlushMode, opts.Flush)
	}

	w := &Watcher[T]{
		rs:       rs,
		callback: cb,
		opts:     opts,
	}
	w.job = NewJob("watch", w.run)
	w.effect, _ = RegisterEffect(rs, func() (any, error) {
		return getter()
	}, EffectOptions{
		Lazy:      true,
		Scheduler: w.schedule,
	})

	initial, err := w.get()
	if err != nil {
		return nil, fmt.Errorf("error while reading initial watch value: %w", err)
	}
	w.oldValue = initial

	if opts.Immediate {
		var zero T
		if err := cb(initial, zero, w.onInvalidate); err != nil {
			return w, fmt.Errorf("error in immediate watch callback: %w", err)
		}
	}
	return w, nil
}

// WatchDeep watches every value reachable from source. Reads go through
// Traverse, so nested Traversable values are tracked key by key. Both
// callback values are source itself.
func WatchDeep[T any](rs *ReactiveSystem, source T, cb WatchCallback[T], opts WatchOptions) (*Watcher[T], error) {
	return Watch(rs, func() (T, error) {
		Traverse(source)
		return source, nil
	}, cb, opts)
}

func (w *Watcher[T]) Effect() *Effect {
	return w.effect
}

// OldValue is the value passed as newValue to the last callback.
func (w *Watcher[T]) OldValue() T {
	return w.oldValue
}

func (w *Watcher[T]) schedule(*Effect) error {
	if w.opts.Flush == FlushPost {
		w.rs.jobs.Enqueue(w.job)
		return nil
	}
	return w.run()
}

func (w *Watcher[T]) run() error {
	newValue, err := w.get()
	if err != nil {
		return fmt.Errorf("error while reading watch value: %w", err)
	}

	if hook := w.invalidate; hook != nil {
		w.invalidate = nil
		hook()
	}

	err = w.callback(newValue, w.oldValue, w.onInvalidate)
	w.oldValue = newValue
	return err
}

func (w *Watcher[T]) get() (T, error) {
	v, err := w.effect.Run()
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (w *Watcher[T]) onInvalidate(hook func()) {
	w.invalidate = hook
}
