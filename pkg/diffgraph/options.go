package diffgraph

import (
	"log/slog"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
)

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the structured logger.
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	g := diffgraph.NewGraph(diffgraph.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(g *Graph) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithSpanManager sets the tracing span manager.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) Option {
	return func(g *Graph) {
		if s != nil {
			g.spans = s
		}
	}
}

// WithMode sets the initial differentiation mode.
// Default: Reverse
func WithMode(m DifferentiationMode) Option {
	return func(g *Graph) {
		if m == Reverse || m == Forward {
			g.mode = m
		}
	}
}
