package reactivity

import (
	"errors"
	"fmt"
)

var (
	// ErrMicrotaskOverflow is returned by a microtask checkpoint that ran more
	// tasks than the system allows, usually a job that keeps re-enqueueing itself.
	ErrMicrotaskOverflow = errors.New("reactivity: microtask queue did not settle")

	// ErrWrongGoroutine is the panic value used when a system created with
	// WithGoroutineCheck is touched from another goroutine.
	ErrWrongGoroutine = errors.New("reactivity: system used outside its owning goroutine")

	ErrUnknownFlushMode = errors.New("reactivity: unknown flush mode")
)

// JobPanicError wraps a value recovered from a panicking job.
type JobPanicError struct {
	Job   string
	Value any
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("reactivity: job %q panicked: %v", e.Job, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *JobPanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
