// Package rxmetrics exports reactivity engine activity as Prometheus metrics.
package rxmetrics

import (
	"time"

	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements reactivity.Instrumentation and prometheus.Collector.
// Install it with reactivity.WithInstrumentation and register it once.
type Collector struct {
	effectRuns     *prometheus.CounterVec
	effectDuration prometheus.Histogram
	triggers       prometheus.Counter
	notified       prometheus.Counter
	jobsRun        prometheus.Counter
	jobsFailed     prometheus.Counter
	flushDuration  prometheus.Histogram
}

var _ reactivity.Instrumentation = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

func New(namespace string) *Collector {
	return &Collector{
		effectRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "effect",
			Name:      "runs_total",
			Help:      "Effect runs, by outcome.",
		}, []string{"result"}),
		effectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "effect",
			Name:      "run_duration_seconds",
			Help:      "Time spent in effect bodies, nested effects included.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 10, 8),
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "total",
			Help:      "Triggers that reached at least one subscriber.",
		}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "notified_effects_total",
			Help:      "Effects re-run or scheduled by triggers.",
		}),
		jobsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "run_total",
			Help:      "Jobs run by job queue flushes.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Jobs that returned an error or panicked.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "flush_duration_seconds",
			Help:      "Time spent flushing the job queue.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 7),
		}),
	}
}

func (c *Collector) EffectRan(_ *reactivity.Effect, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.effectRuns.WithLabelValues(result).Inc()
	c.effectDuration.Observe(took.Seconds())
}

func (c *Collector) Triggered(_ string, notified int) {
	c.triggers.Inc()
	c.notified.Add(float64(notified))
}

func (c *Collector) JobsFlushed(ran, failed int, took time.Duration) {
	c.jobsRun.Add(float64(ran))
	c.jobsFailed.Add(float64(failed))
	c.flushDuration.Observe(took.Seconds())
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.effectRuns,
		c.effectDuration,
		c.triggers,
		c.notified,
		c.jobsRun,
		c.jobsFailed,
		c.flushDuration,
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}
