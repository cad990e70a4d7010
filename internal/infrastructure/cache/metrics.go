package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors for caches and queues. A nil *Metrics records nothing.
type Metrics struct {
	lookups   *prometheus.CounterVec
	coalesced *prometheus.CounterVec
	fills     *prometheus.CounterVec
	queued    *prometheus.GaugeVec
	wait      *prometheus.HistogramVec
	tasks     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result (hit or miss).",
		}, []string{"cache", "result"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "cache",
			Name:      "coalesced_total",
			Help:      "Callers that shared an in-flight load instead of starting one.",
		}, []string{"cache"}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "cache",
			Name:      "loads_total",
			Help:      "Loads executed on a miss, by outcome.",
		}, []string{"cache", "outcome"}),
		queued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "queue",
			Name:      "pending_tasks",
			Help:      "Tasks waiting for a worker, by priority.",
		}, []string{"queue", "priority"}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "queue",
			Name:      "wait_seconds",
			Help:      "Time a task spent queued before a worker picked it up.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"queue", "priority"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Tasks by priority and outcome (ok, error, skipped).",
		}, []string{"queue", "priority", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.lookups, m.coalesced, m.fills, m.queued, m.wait, m.tasks)
	}
	return m
}

func (m *Metrics) lookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) shared(cache string) {
	if m == nil {
		return
	}
	m.coalesced.WithLabelValues(cache).Inc()
}

func (m *Metrics) load(cache string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fills.WithLabelValues(cache, outcome).Inc()
}

func (m *Metrics) queueDepth(queue string, p Priority, delta float64) {
	if m == nil {
		return
	}
	m.queued.WithLabelValues(queue, p.String()).Add(delta)
}

func (m *Metrics) queueWait(queue string, p Priority, seconds float64) {
	if m == nil {
		return
	}
	m.wait.WithLabelValues(queue, p.String()).Observe(seconds)
}

func (m *Metrics) queueTask(queue string, p Priority, outcome string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(queue, p.String(), outcome).Inc()
}
