package runner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects saturation statistics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	iterations  prometheus.Counter
	unions      prometheus.Counter
	ruleMatches *prometheus.CounterVec
	nodes       prometheus.Histogram
	duration    prometheus.Histogram
}

// NewMetrics registers the runner metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: reason (saturated, node-limit, ...)
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eqsat",
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Saturation runs by stop reason",
		}, []string{"reason"}),

		iterations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "eqsat",
			Subsystem: "runner",
			Name:      "iterations_total",
			Help:      "Saturation iterations executed",
		}),

		unions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "eqsat",
			Subsystem: "runner",
			Name:      "unions_total",
			Help:      "Class unions performed by rule application and rebuild",
		}),

		// Labels: rule
		ruleMatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eqsat",
			Subsystem: "runner",
			Name:      "rule_matches_total",
			Help:      "Substitutions found per rewrite rule",
		}, []string{"rule"}),

		nodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eqsat",
			Subsystem: "egraph",
			Name:      "nodes",
			Help:      "E-graph node count at the end of a run",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}),

		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eqsat",
			Subsystem: "runner",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of a saturation run",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
	}
}

func (m *Metrics) observeIteration(it Iteration) {
	if m == nil {
		return
	}
	m.iterations.Inc()
	m.unions.Add(float64(it.Unions))
	for rule, n := range it.Matches {
		m.ruleMatches.WithLabelValues(rule).Add(float64(n))
	}
}

func (m *Metrics) observeStop(reason StopReason, nodes int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(reason.String()).Inc()
	m.nodes.Observe(float64(nodes))
	m.duration.Observe(elapsed.Seconds())
}
