package routing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports routing decision metrics in Prometheus format.
type Metrics struct {
	registry *prometheus.Registry

	decisionsTotal  *prometheus.CounterVec
	advisorFailures prometheus.Counter
	decisionLatency prometheus.Histogram
}

// MetricsConfig configures the metrics exporter.
type MetricsConfig struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for the decision latency histogram (in seconds)
	LatencyBuckets []float64
}

// DefaultMetricsConfig returns default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewMetrics creates a Prometheus metrics exporter for routing decisions.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultMetricsConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatchsense",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Routing decisions by winning source (rule, default, advisor).",
		}, []string{"source"}),
		advisorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatchsense",
			Subsystem: "routing",
			Name:      "advisor_failures_total",
			Help:      "Advisor calls that failed or returned anomalous results.",
		}),
		decisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dispatchsense",
			Subsystem: "routing",
			Name:      "decision_latency_seconds",
			Help:      "End-to-end AssignTicket latency.",
			Buckets:   cfg.LatencyBuckets,
		}),
	}

	registry.MustRegister(m.decisionsTotal, m.advisorFailures, m.decisionLatency)
	return m
}

// Registry exposes the underlying registry for HTTP serving.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDecision records one completed routing decision.
func (m *Metrics) ObserveDecision(source string, latency time.Duration) {
	m.decisionsTotal.WithLabelValues(source).Inc()
	m.decisionLatency.Observe(latency.Seconds())
}

// ObserveAdvisorFailure records one recovered advisor failure.
func (m *Metrics) ObserveAdvisorFailure() {
	m.advisorFailures.Inc()
}
