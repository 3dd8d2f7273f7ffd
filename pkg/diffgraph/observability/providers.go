package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName scopes every meter and tracer this package creates.
const instrumentationName = "github.com/randalmurphal/diffgraph"

// ProviderOption selects the OpenTelemetry providers a recorder or span
// manager reports to. The global providers are used by default.
type ProviderOption func(*providers)

type providers struct {
	meters  metric.MeterProvider
	tracers trace.TracerProvider
}

// WithMeterProvider reports metrics to mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) ProviderOption {
	return func(p *providers) { p.meters = mp }
}

// WithTracerProvider reports spans to tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ProviderOption {
	return func(p *providers) { p.tracers = tp }
}

func resolveProviders(opts []ProviderOption) providers {
	p := providers{
		meters:  otel.GetMeterProvider(),
		tracers: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
