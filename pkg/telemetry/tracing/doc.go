// Package tracing configures OpenTelemetry tracing.
//
// When telemetry.tracing.enabled is set, New installs a global tracer
// provider that exports spans to an OTLP collector over gRPC or HTTP
// (telemetry.tracing.protocol). Otherwise the returned Tracer is a no-op.
//
// The evaluator creates a "condition.evaluate" span for every pass, and the
// HTTP server extracts W3C trace context from incoming requests, so a
// pass appears under the caller's trace.
package tracing
