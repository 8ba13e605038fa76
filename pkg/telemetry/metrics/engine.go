package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/config"
)

// EngineMetrics tracks evaluation passes.
type EngineMetrics struct {
	passesTotal  *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	closureSize  prometheus.Histogram
	nodesTotal   *prometheus.CounterVec
	rootsTotal   *prometheus.CounterVec
}

// NewEngineMetrics registers the evaluation metrics.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "passes_total",
				Help:      "Total number of evaluation passes",
			},
			[]string{"ruleset", "status"},
		),

		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "pass_duration_seconds",
				Help:      "Duration of evaluation passes in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"ruleset"},
		),

		closureSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "closure_size",
				Help:      "Number of conditions in the closure of a pass",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
			},
		),

		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "nodes_total",
				Help:      "Conditions resolved by evaluation passes, by origin",
			},
			[]string{"origin"},
		),

		rootsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "roots_total",
				Help:      "Root conditions reported by evaluation passes, by outcome",
			},
			[]string{"ruleset", "satisfied"},
		),
	}

	registry.MustRegister(m.passesTotal, m.passDuration, m.closureSize, m.nodesTotal, m.rootsTotal)
	return m
}

// RecordPass records one pass. result may be partial when status is not "success".
func (m *EngineMetrics) RecordPass(ruleSet, status string, result *engine.Result) {
	m.passesTotal.WithLabelValues(ruleSet, status).Inc()
	m.passDuration.WithLabelValues(ruleSet).Observe(result.Duration.Seconds())

	if result.NodeCount > 0 {
		m.closureSize.Observe(float64(result.NodeCount))
	}
	m.nodesTotal.WithLabelValues("evaluated").Add(float64(result.Evaluated))
	m.nodesTotal.WithLabelValues("seeded").Add(float64(result.Seeded))

	for _, root := range result.Roots {
		if root.Satisfied {
			m.rootsTotal.WithLabelValues(ruleSet, "true").Inc()
		} else {
			m.rootsTotal.WithLabelValues(ruleSet, "false").Inc()
		}
	}
}
