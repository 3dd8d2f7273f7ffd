package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager opens one span per value or derivative pass.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartPropagationSpan starts the span for a pass over graphID.
	StartPropagationSpan(ctx context.Context, graphID, kind string) (context.Context, trace.Span)

	// EndSpanWithError ends span, marking it failed when err is non-nil.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent attaches an event to the span carried by ctx.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by OpenTelemetry.
// Spans are named diffgraph.values and diffgraph.derivatives.
func NewSpanManager(opts ...ProviderOption) SpanManager {
	p := resolveProviders(opts)
	return &otelSpanManager{tracer: p.tracers.Tracer(instrumentationName)}
}

func (m *otelSpanManager) StartPropagationSpan(ctx context.Context, graphID, kind string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "diffgraph."+kind,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.String("propagation.kind", kind),
		),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
