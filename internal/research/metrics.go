package research

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters and histograms emitted across an orchestration
// run. Dashboards are out of scope; the instrumentation itself is an ambient
// concern carried regardless, the way the teacher instruments tool and
// runtime execution.
type Metrics struct {
	ToolCallsTotal   *prometheus.CounterVec
	WorkerDuration   prometheus.Histogram
	RetryAttempts    *prometheus.CounterVec
	WorkersActive    prometheus.Gauge
}

// NewMetrics registers orchestration metrics on reg. Passing a nil registry
// yields a Metrics value backed by a private registry, safe for tests that
// run many orchestrations without colliding on global registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepresearch_tool_calls_total",
			Help: "Total tool calls dispatched, labeled by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		WorkerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepresearch_worker_duration_seconds",
			Help:    "Wall-clock duration of a single worker research loop.",
			Buckets: prometheus.DefBuckets,
		}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepresearch_retry_attempts_total",
			Help: "Retry attempts, labeled by component and error kind.",
		}, []string{"component", "kind"}),
		WorkersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deepresearch_workers_active",
			Help: "Number of worker researchers currently running.",
		}),
	}

	reg.MustRegister(m.ToolCallsTotal, m.WorkerDuration, m.RetryAttempts, m.WorkersActive)
	return m
}

// RecordToolCall increments the tool-call counter for name/outcome.
func (m *Metrics) RecordToolCall(name, outcome string) {
	if m == nil || m.ToolCallsTotal == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(name, outcome).Inc()
}

// RecordRetry increments the retry counter for component/kind.
func (m *Metrics) RecordRetry(component string, kind StepKind) {
	if m == nil || m.RetryAttempts == nil {
		return
	}
	m.RetryAttempts.WithLabelValues(component, string(kind)).Inc()
}
