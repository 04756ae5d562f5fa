package holoware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	ddtracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Tracer wraps one unit of evaluation work in a span. Engine calls
// StartSpan once around each Evaluate; individual Sample dispatches are not
// traced. A nil Tracer (the default) disables tracing.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error))
}

// otelTracer implements Tracer over go.opentelemetry.io/otel, the
// reference backend for a span-per-operation view of template evaluation.
type otelTracer struct {
	tracer oteltrace.Tracer
}

// NewOtelTracer returns a Tracer that reports spans through the globally
// configured otel TracerProvider under instrumentation name name.
func NewOtelTracer(name string) Tracer {
	return &otelTracer{tracer: otel.Tracer(name)}
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error)) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(kv...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// ddTracer implements Tracer over gopkg.in/DataDog/dd-trace-go.v1, for
// deployments that ship traces to a Datadog agent instead of an OTLP
// collector.
type ddTracer struct{}

// NewDatadogTracer returns a Tracer reporting spans through the process's
// already-started Datadog tracer (ddtracer.Start must be called by the
// host application).
func NewDatadogTracer() Tracer {
	return &ddTracer{}
}

func (t *ddTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error)) {
	opts := make([]ddtracer.StartSpanOption, 0, len(attrs))
	for k, v := range attrs {
		opts = append(opts, ddtracer.Tag(k, v))
	}
	span, ctx := ddtracer.StartSpanFromContext(ctx, name, opts...)
	return ctx, func(err error) {
		span.Finish(ddtracer.WithError(err))
	}
}
