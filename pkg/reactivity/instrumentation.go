package reactivity

import "time"

// Instrumentation receives engine events. Implementations are called
// synchronously on the system's goroutine and must not call back into it.
type Instrumentation interface {
	// EffectRan is called after every effect run.
	EffectRan(e *Effect, took time.Duration, err error)
	// Triggered is called once per Trigger that found subscribers, with the
	// number of effects notified.
	Triggered(key string, notified int)
	// JobsFlushed is called after a job queue flush.
	JobsFlushed(ran, failed int, took time.Duration)
}

type nopInstrumentation struct{}

func (nopInstrumentation) EffectRan(*Effect, time.Duration, error) {}
func (nopInstrumentation) Triggered(string, int)                   {}
func (nopInstrumentation) JobsFlushed(int, int, time.Duration)     {}
