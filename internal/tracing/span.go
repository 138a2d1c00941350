package tracing

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/salvo/internal/metrics"
)

// StartRequestSpan starts a client span for one request of a burst.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, method, target string) (context.Context, trace.Span) {
	if method == "" {
		method = http.MethodGet
	}
	return tracer.Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
}

// EndRequestSpan records the outcome on span and ends it. Any non-200
// response is marked as an error, matching how salvo counts successes.
func EndRequestSpan(span trace.Span, o metrics.Outcome) {
	span.SetAttributes(attribute.Int64("salvo.latency_us", o.Latency.Microseconds()))
	if o.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", o.StatusCode))
	}
	switch {
	case o.Succeeded:
		span.SetStatus(codes.Ok, "")
	case o.StatusCode != 0:
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(o.StatusCode))
	default:
		span.SetAttributes(attribute.String("error.type", o.ErrorKind))
		span.RecordError(errors.New(o.ErrorDetail))
		span.SetStatus(codes.Error, o.ErrorKind)
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
