// Package tracing provides OpenTelemetry tracing integration.
//
// Init installs the tracer provider at startup, Middleware opens a server span
// per HTTP request and StartSpan opens internal spans around preview
// resolution and webhook calls.
//
// Example usage:
//
//	shutdown := tracing.Init(tracing.Config{ServiceName: "chatwidget", SampleRatio: 1})
//	defer func() { _ = shutdown(context.Background()) }()
//
//	ctx, span := tracing.StartSpan(ctx, "preview.resolve")
//	defer span.End()
package tracing
