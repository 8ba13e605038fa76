package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
)

// RuleSetMetrics tracks rule-set reloads.
type RuleSetMetrics struct {
	reloadsTotal   *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
	conditions     *prometheus.GaugeVec
	lastReload     *prometheus.GaugeVec
}

// NewRuleSetMetrics registers the reload metrics.
func NewRuleSetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleSetMetrics {
	m := &RuleSetMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "ruleset",
				Name:      "reloads_total",
				Help:      "Total number of rule-set reload attempts",
			},
			[]string{"source", "status"},
		),

		reloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "ruleset",
				Name:      "reload_duration_seconds",
				Help:      "Duration of rule-set reloads in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to 16s
			},
			[]string{"source"},
		),

		conditions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "ruleset",
				Name:      "conditions",
				Help:      "Number of conditions in the active rule set",
			},
			[]string{"source"},
		),

		lastReload: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "ruleset",
				Name:      "last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful reload",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(m.reloadsTotal, m.reloadDuration, m.conditions, m.lastReload)
	return m
}

// RecordReload records one reload attempt. A failed reload leaves the
// condition gauge at the value of the bundle still in use.
func (m *RuleSetMetrics) RecordReload(source string, bundle *ruleset.Bundle, duration time.Duration, err error) {
	m.reloadDuration.WithLabelValues(source).Observe(duration.Seconds())

	if err != nil {
		m.reloadsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	m.reloadsTotal.WithLabelValues(source, "success").Inc()

	if bundle != nil && bundle.Registry != nil {
		m.conditions.WithLabelValues(source).Set(float64(bundle.Registry.Len()))
	}
	m.lastReload.WithLabelValues(source).SetToCurrentTime()
}
