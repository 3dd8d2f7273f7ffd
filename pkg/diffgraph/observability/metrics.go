package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records diffgraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPropagation records a completed or failed value/derivative pass.
	RecordPropagation(ctx context.Context, kind string, nodes int, duration time.Duration, err error)

	// RecordConnection records a connect attempt with its outcome
	// ("accepted", "cycle", "port_full", "duplicate", ...).
	RecordConnection(ctx context.Context, outcome string)

	// RecordUserCodeError records a failure inside operation code.
	RecordUserCodeError(ctx context.Context, operationID, function string)
}

// Instrument names.
const (
	MetricPropagationRuns    = "diffgraph.propagation.runs"
	MetricPropagationLatency = "diffgraph.propagation.latency_ms"
	MetricPropagationNodes   = "diffgraph.propagation.nodes"
	MetricPropagationErrors  = "diffgraph.propagation.errors"
	MetricConnections        = "diffgraph.connections"
	MetricUserCodeErrors     = "diffgraph.usercode.errors"
)

type otelMetrics struct {
	runs        metric.Int64Counter
	latency     metric.Float64Histogram
	nodes       metric.Int64Histogram
	failures    metric.Int64Counter
	connections metric.Int64Counter
	userCode    metric.Int64Counter
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	var (
		m    otelMetrics
		errs []error
	)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	m.runs = counter(MetricPropagationRuns, "Value and derivative passes")
	m.failures = counter(MetricPropagationErrors, "Passes that failed")
	m.connections = counter(MetricConnections, "Connect attempts by outcome")
	m.userCode = counter(MetricUserCodeErrors, "Failures raised by operation code")

	var err error
	m.latency, err = meter.Float64Histogram(MetricPropagationLatency,
		metric.WithDescription("Pass latency"),
		metric.WithUnit("ms"),
	)
	errs = append(errs, err)
	m.nodes, err = meter.Int64Histogram(MetricPropagationNodes,
		metric.WithDescription("Nodes updated per pass"),
	)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by OpenTelemetry.
// If an instrument cannot be created it logs a warning and returns
// NoopMetrics.
func NewMetricsRecorder(opts ...ProviderOption) MetricsRecorder {
	p := resolveProviders(opts)
	m, err := newOtelMetrics(p.meters.Meter(instrumentationName))
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordPropagation(ctx context.Context, kind string, nodes int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	)
	m.runs.Add(ctx, 1, attrs)
	m.latency.Record(ctx, Milliseconds(duration), attrs)
	m.nodes.Record(ctx, int64(nodes), attrs)
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *otelMetrics) RecordConnection(ctx context.Context, outcome string) {
	m.connections.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *otelMetrics) RecordUserCodeError(ctx context.Context, operationID, function string) {
	m.userCode.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation_id", operationID),
		attribute.String("function", function),
	))
}
