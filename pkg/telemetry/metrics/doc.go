// Package metrics exposes Prometheus metrics for Verdict.
//
// A Collector is registered as an engine.Observer and as the rule-set
// manager's reload observer, so it sees every evaluation pass and reload
// without the core packages importing Prometheus:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	evaluator, _ := engine.NewEvaluator(nil, engine.WithObserver(collector))
//	manager := source.NewManager(src, source.WithReloadObserver(collector))
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Metrics
//
// Engine:
//   - verdict_engine_passes_total{ruleset,status}
//   - verdict_engine_pass_duration_seconds{ruleset}
//   - verdict_engine_closure_size
//   - verdict_engine_nodes_total{origin}
//   - verdict_engine_roots_total{ruleset,satisfied}
//
// Rule sets:
//   - verdict_ruleset_reloads_total{source,status}
//   - verdict_ruleset_reload_duration_seconds{source}
//   - verdict_ruleset_conditions{source}
//   - verdict_ruleset_last_reload_timestamp_seconds{source}
//
// HTTP:
//   - verdict_http_requests_total{route,method,code}
//   - verdict_http_request_duration_seconds{route}
//
// Audit (after RegisterAudit):
//   - verdict_audit_records_written_total
//   - verdict_audit_records_failed_total
//   - verdict_audit_records_dropped_total
//
// Rule-set label values are capped; names past the cap are reported as "other".
package metrics
