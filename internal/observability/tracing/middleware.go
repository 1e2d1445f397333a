package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"chatwidget/internal/handler/http/pathutil"
	"chatwidget/internal/handler/http/requestid"
	"chatwidget/internal/handler/http/responsewriter"
)

// Middleware starts a server span per request, continuing any W3C trace
// context the widget sent. The span is named after the bounded route label,
// the trace id is echoed in X-Trace-Id, and 5xx responses mark the span as
// failed. Place it inside requestid.Middleware so the id is recorded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := pathutil.NormalizePath(r.URL.Path)
		ctx, span := GetTracer().Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.query_length", len(r.URL.RawQuery)),
			),
		)
		defer span.End()

		if id := requestid.FromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if span.SpanContext().HasTraceID() {
			w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		status := rw.StatusCode()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int("http.response_size", rw.BytesWritten()),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// RecordError marks span as failed with err. A nil err leaves it untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
