package reactivity

import (
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Job is a unit of deferred work. Jobs are deduplicated by pointer
// identity, so the same *Job enqueued twice before a flush runs once.
type Job struct {
	name string
	fn   func() error
}

func NewJob(name string, fn func() error) *Job {
	return &Job{name: name, fn: fn}
}

func (j *Job) Name() string {
	return j.name
}

// JobQueue batches jobs into a single flush per microtask checkpoint.
//
// Jobs enqueued while a flush is running are not added to that flush; they
// schedule the next one, which still runs within the same checkpoint.
type JobQueue struct {
	rs *ReactiveSystem

	pending mapset.Set[*Job]
	order   []*Job

	scheduled bool
	flushing  bool
}

func newJobQueue(rs *ReactiveSystem) *JobQueue {
	return &JobQueue{
		rs:      rs,
		pending: mapset.NewThreadUnsafeSet[*Job](),
	}
}

// Enqueue adds job to the pending batch and schedules a flush if none is.
func (q *JobQueue) Enqueue(job *Job) {
	if job == nil || !q.pending.Add(job) {
		return
	}
	q.order = append(q.order, job)
	if !q.scheduled {
		q.scheduled = true
		q.rs.QueueMicrotask(q.flush)
	}
}

// Pending reports how many jobs wait for the next flush.
func (q *JobQueue) Pending() int {
	return len(q.order)
}

// Flushing reports whether a flush is scheduled or running.
func (q *JobQueue) Flushing() bool {
	return q.scheduled || q.flushing
}

func (q *JobQueue) flush() error {
	batch := q.order
	q.order = nil
	q.pending.Clear()
	q.scheduled = false
	q.flushing = true
	defer func() { q.flushing = false }()

	start := time.Now()
	var errs []error
	for _, job := range batch {
		if err := q.runJob(job); err != nil {
			q.rs.onJobError(job, err)
			errs = append(errs, err)
		}
	}

	q.rs.logger.Debug("jobs flushed", "ran", len(batch), "failed", len(errs))
	q.rs.instr.JobsFlushed(len(batch), len(errs), time.Since(start))
	return errors.Join(errs...)
}

func (q *JobQueue) runJob(job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &JobPanicError{Job: job.name, Value: r}
		}
	}()
	if err := job.fn(); err != nil {
		return fmt.Errorf("job %q: %w", job.name, err)
	}
	return nil
}
