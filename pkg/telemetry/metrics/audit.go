package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/verdict/pkg/config"
)

// AuditStats exposes the counters of an audit recorder.
type AuditStats interface {
	Written() int64
	Failed() int64
	Dropped() int64
}

func registerAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, stats AuditStats) {
	counter := func(name, help string, value func() int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      name,
				Help:      help,
			},
			func() float64 { return float64(value()) },
		)
	}

	registry.MustRegister(
		counter("records_written_total", "Audit records written to storage", stats.Written),
		counter("records_failed_total", "Audit records rejected by storage", stats.Failed),
		counter("records_dropped_total", "Audit records dropped on a full buffer", stats.Dropped),
	)
}
