// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Chat proxy metrics (messages, webhook latency)
//   - Preview metrics (classifications, probes, metadata resolution)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "chatwidget/internal/observability/metrics"
//
//	func resolve(url string) {
//	    start := time.Now()
//	    // ... fetch page ...
//	    metrics.RecordMetadataSuccess("direct", time.Since(start))
//	}
package metrics
