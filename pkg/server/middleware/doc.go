// Package middleware provides the HTTP middleware chain of the evaluation
// service: panic recovery, request IDs, access logging and trace propagation.
//
// Middleware is applied outermost first:
//
//	handler = Recovery(logger)(Logging(logger)(RequestID(Tracing(tracer)(mux))))
//
// RequestID stores the ID with logging.WithRequestID, so every log line
// written with a request context carries a request_id attribute.
package middleware
