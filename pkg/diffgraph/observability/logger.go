// Package observability provides structured logging, metrics, and tracing
// for diffgraph propagation and user-code evaluation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// Propagation kinds used as log fields and metric attributes.
const (
	KindValues      = "values"
	KindDerivatives = "derivatives"
)

// EnrichLogger adds graph context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, g.ID())
//	enriched.Info("loaded") // includes graph_id
func EnrichLogger(logger *slog.Logger, graphID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("graph_id", graphID))
}

// LogPropagationStart logs the start of a value or derivative pass.
func LogPropagationStart(logger *slog.Logger, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("propagation starting",
		slog.String("kind", kind),
	)
}

// LogPropagationComplete logs a successful pass.
func LogPropagationComplete(logger *slog.Logger, kind string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Debug("propagation completed",
		slog.String("kind", kind),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_updated", nodeCount),
	)
}

// LogPropagationError logs a failed pass.
func LogPropagationError(logger *slog.Logger, kind string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("propagation failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogConnectionRejected logs a connect attempt that failed validation.
func LogConnectionRejected(logger *slog.Logger, source, target, port string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("connection rejected",
		slog.String("source", source),
		slog.String("target", target),
		slog.String("port", port),
		slog.String("error", err.Error()),
	)
}

// LogUserCodeError logs a failure inside operation code.
func LogUserCodeError(logger *slog.Logger, operationID, function string, err error) {
	if logger == nil {
		return
	}
	logger.Error("operation code failed",
		slog.String("operation_id", operationID),
		slog.String("function", function),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Milliseconds converts d to fractional milliseconds for log fields.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
