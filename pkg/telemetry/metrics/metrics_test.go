package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"strategos-hq/verdict/pkg/condition"
	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func testResult(ruleSet string) *engine.Result {
	return &engine.Result{
		PassID:    "pass-1",
		RuleSet:   ruleSet,
		NodeCount: 5,
		Evaluated: 3,
		Seeded:    2,
		Duration:  2 * time.Millisecond,
		Roots: []engine.RootResult{
			{Key: "Germans/a", Satisfied: true},
			{Key: "Germans/b"},
		},
	}
}

// TestCollector_ObservePass tests pass counters by status.
func TestCollector_ObservePass(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	ctx := context.Background()

	c.ObservePass(ctx, testResult("berlin"), nil)
	c.ObservePass(ctx, testResult("berlin"), nil)
	c.ObservePass(ctx, testResult("berlin"), errors.New("cycle"))
	c.ObservePass(ctx, testResult("berlin"), &engine.TimeoutError{PassID: "p", Timeout: time.Second})
	c.ObservePass(ctx, nil, nil)

	tests := []struct {
		status string
		want   float64
	}{
		{"success", 2},
		{"error", 1},
		{"timeout", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(c.engineMetrics.passesTotal.WithLabelValues("berlin", tt.status))
		if got != tt.want {
			t.Errorf("passes_total{status=%s} = %v, want %v", tt.status, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(c.engineMetrics.nodesTotal.WithLabelValues("evaluated")); got != 12 {
		t.Errorf("nodes_total{origin=evaluated} = %v, want 12", got)
	}
	if got := testutil.ToFloat64(c.engineMetrics.rootsTotal.WithLabelValues("berlin", "true")); got != 4 {
		t.Errorf("roots_total{satisfied=true} = %v, want 4", got)
	}
}

// TestCollector_Disabled tests that a disabled collector records nothing.
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.ObservePass(context.Background(), testResult("berlin"), nil)
	c.RecordHTTPRequest("/v1/evaluate", "POST", 200, time.Millisecond)

	if n := testutil.CollectAndCount(c.engineMetrics.passesTotal); n != 0 {
		t.Errorf("passes_total has %d series, want 0", n)
	}
	if n := testutil.CollectAndCount(c.httpMetrics.requestsTotal); n != 0 {
		t.Errorf("http requests_total has %d series, want 0", n)
	}
}

// TestCollector_ObserveReload tests reload counters and the condition gauge.
func TestCollector_ObserveReload(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	reg := condition.NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := reg.Define("Germans", name); err != nil {
			t.Fatalf("Define(%s) failed: %v", name, err)
		}
	}
	bundle := &ruleset.Bundle{Name: "berlin", Registry: reg}

	c.ObserveReload("file:rules", bundle, 5*time.Millisecond, nil)
	c.ObserveReload("file:rules", nil, time.Millisecond, errors.New("parse error"))

	if got := testutil.ToFloat64(c.ruleSetMetrics.reloadsTotal.WithLabelValues("file:rules", "success")); got != 1 {
		t.Errorf("reloads_total{status=success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ruleSetMetrics.reloadsTotal.WithLabelValues("file:rules", "error")); got != 1 {
		t.Errorf("reloads_total{status=error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ruleSetMetrics.conditions.WithLabelValues("file:rules")); got != 3 {
		t.Errorf("conditions = %v, want 3 after a failed reload", got)
	}
}

type fakeAuditStats struct{ written, failed, dropped int64 }

func (f fakeAuditStats) Written() int64 { return f.written }
func (f fakeAuditStats) Failed() int64  { return f.failed }
func (f fakeAuditStats) Dropped() int64 { return f.dropped }

// TestCollector_RegisterAudit tests the audit counter functions.
func TestCollector_RegisterAudit(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.RegisterAudit(fakeAuditStats{written: 7, failed: 1, dropped: 2})
	c.RegisterAudit(fakeAuditStats{})

	expected := `
# HELP test_audit_records_dropped_total Audit records dropped on a full buffer
# TYPE test_audit_records_dropped_total counter
test_audit_records_dropped_total 2
# HELP test_audit_records_written_total Audit records written to storage
# TYPE test_audit_records_written_total counter
test_audit_records_written_total 7
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"test_audit_records_dropped_total", "test_audit_records_written_total")
	if err != nil {
		t.Error(err)
	}
}

// TestCollector_Middleware tests HTTP request metrics.
func TestCollector_Middleware(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	h := c.Middleware("/v1/evaluate", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil))

	if got := testutil.ToFloat64(c.httpMetrics.requestsTotal.WithLabelValues("/v1/evaluate", "POST", "400")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

// TestCollector_Handler tests the metrics endpoint.
func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.ObservePass(context.Background(), testResult("berlin"), nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_engine_passes_total") {
		t.Error("metrics output missing test_engine_passes_total")
	}
}

// TestCardinalityLimiter tests the label value cap.
func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("first two values should be allowed")
	}
	if cl.Allow("c") {
		t.Error("third value should be rejected")
	}
	if !cl.Allow("a") {
		t.Error("known value should stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}
