package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
)

// DefaultDurationBuckets are pass duration buckets in seconds, from 10µs to 1s.
var DefaultDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// maxRuleSetLabels caps distinct rule-set label values.
const maxRuleSetLabels = 1000

// Collector owns every Verdict metric. It observes evaluation passes and
// rule-set reloads, and wraps HTTP handlers.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	engineMetrics  *EngineMetrics
	ruleSetMetrics *RuleSetMetrics
	httpMetrics    *HTTPMetrics

	auditOnce sync.Once

	ruleSets *CardinalityLimiter
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers all metrics on registry. A nil registry creates a
// new one. Process and Go runtime collectors are registered as well.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = DefaultDurationBuckets
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
	)

	return &Collector{
		config:         cfg,
		registry:       registry,
		engineMetrics:  NewEngineMetrics(cfg, registry),
		ruleSetMetrics: NewRuleSetMetrics(cfg, registry),
		httpMetrics:    NewHTTPMetrics(cfg, registry),
		ruleSets:       NewCardinalityLimiter(maxRuleSetLabels),
	}
}

// ObservePass records an evaluation pass.
func (c *Collector) ObservePass(_ context.Context, result *engine.Result, err error) {
	if !c.config.Enabled || result == nil {
		return
	}
	c.engineMetrics.RecordPass(c.ruleSetLabel(result.RuleSet), passStatus(err), result)
}

// ObserveReload records a rule-set reload attempt.
func (c *Collector) ObserveReload(source string, bundle *ruleset.Bundle, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.ruleSetMetrics.RecordReload(source, bundle, duration, err)
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// RegisterAudit exposes the counters of an audit recorder. Only the first
// call registers; later calls are ignored.
func (c *Collector) RegisterAudit(stats AuditStats) {
	c.auditOnce.Do(func() {
		registerAuditMetrics(c.config, c.registry, stats)
	})
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ruleSetLabel(name string) string {
	if name == "" {
		return "unnamed"
	}
	if !c.ruleSets.Allow(name) {
		return "other"
	}
	return name
}

func passStatus(err error) string {
	var timeout *engine.TimeoutError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// CardinalityLimiter bounds the number of distinct label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label value.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
