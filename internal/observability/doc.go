// Package observability groups the service's structured logging, Prometheus
// metrics and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: slog construction and context propagation
//   - metrics: Prometheus collectors and recorders for the chat proxy and previews
//   - tracing: tracer provider setup and HTTP tracing middleware
package observability
