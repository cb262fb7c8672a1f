package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/renderrelay"

// Tracer provides OpenTelemetry tracing for calls to the document service.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// NewTracerWithProvider creates a tracer from an explicit provider.
func NewTracerWithProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(tracerName),
	}
}

// StartRequestSpan starts a client span for one outbound request.
func (t *Tracer) StartRequestSpan(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "renderrelay."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("renderrelay.op", op),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}

// EndRequestSpan ends a request span with its result.
func (t *Tracer) EndRequestSpan(span trace.Span, statusCode int, err error) {
	span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
