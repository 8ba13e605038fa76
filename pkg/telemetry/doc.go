// Package telemetry groups Verdict's observability packages.
//
//   - logging: slog logger construction with secret redaction
//   - metrics: Prometheus collector for passes, reloads, HTTP and audit
//   - tracing: OpenTelemetry tracer provider with OTLP gRPC or HTTP export
//   - health: liveness and readiness endpoints
package telemetry
