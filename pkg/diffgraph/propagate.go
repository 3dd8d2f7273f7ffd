package diffgraph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/expr"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
)

// UpdateFValues recomputes every node's value in dependency order and
// returns the ids in the order they were updated.
//
// The order comes from a depth-first sort seeded at the terminal nodes
// (those feeding nothing) and walking toward inputs, so each node is updated
// exactly once and only after all of its inputs. A UserCodeError stops the
// pass; the returned ids are those updated before the failure and the
// remaining nodes keep their previous values.
func (g *Graph) UpdateFValues() ([]string, error) {
	return g.propagate(observability.KindValues, g.updateFValues)
}

func (g *Graph) updateFValues(ctx context.Context) ([]string, error) {
	order, err := g.topologicalSort(g.terminalNodes(), inputDirection)
	if err != nil {
		return nil, err
	}
	updated := make([]string, 0, len(order))
	for _, id := range order {
		if err := g.nodes[id].UpdateValue(g); err != nil {
			return updated, err
		}
		updated = append(updated, id)
	}
	g.spans.AddSpanEvent(ctx, "values.updated", attribute.Int("nodes", len(updated)))
	return updated, nil
}

// UpdateDerivatives clears the derivative cache and recomputes it for the
// current target and mode, returning the ids it filled, target first.
//
// Reverse mode visits the target's input ancestors and stores
// d(target)/d(node):
//
//	derivative(n) = Σ over outputs o of n: o.CalculateDerivative(n) * derivative(o)
//
// Forward mode visits the target's output descendants and stores
// d(node)/d(target):
//
//	derivative(n) = Σ over inputs i of n: derivative(i) * n.CalculateDerivative(i)
//
// Terms are summed in neighbor insertion order. Neighbors the walk did not
// reach contribute nothing and their local derivative is not evaluated.
// With no target set the cache is left empty and no ids are returned.
func (g *Graph) UpdateDerivatives() ([]string, error) {
	return g.propagate(observability.KindDerivatives, g.updateDerivatives)
}

func (g *Graph) updateDerivatives(ctx context.Context) ([]string, error) {
	g.clearDerivatives()
	if g.target == "" {
		return []string{}, nil
	}

	dir := inputDirection
	if g.mode == Forward {
		dir = outputDirection
	}
	order, err := g.topologicalSort([]string{g.target}, dir)
	if err != nil {
		return nil, err
	}

	updated := make([]string, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		n := g.nodes[order[i]]

		var d string
		switch {
		case n.ID() == g.target:
			d, err = n.CalculateDerivative(n, g)
		case g.mode == Reverse:
			d, err = g.reverseDerivative(n)
		default:
			d, err = g.forwardDerivative(n)
		}
		if err != nil {
			return updated, err
		}
		g.derivatives[n.ID()] = d
		updated = append(updated, n.ID())
	}

	g.spans.AddSpanEvent(ctx, "derivatives.updated",
		attribute.String("target", g.target),
		attribute.String("mode", g.mode.String()),
		attribute.Int("nodes", len(updated)),
	)
	return updated, nil
}

// reverseDerivative applies the chain rule over n's outputs.
func (g *Graph) reverseDerivative(n Node) (string, error) {
	sum := 0.0
	for _, o := range g.neighbors(n.ID(), outputDirection) {
		dOut, ok := g.derivatives[o]
		if !ok {
			continue
		}
		local, err := g.nodes[o].CalculateDerivative(n, g)
		if err != nil {
			return "", err
		}
		term, err := multiply(local, dOut)
		if err != nil {
			return "", fmt.Errorf("node %s via %s: %w", n.ID(), o, err)
		}
		sum += term
	}
	return expr.FormatNumber(sum), nil
}

// forwardDerivative applies the chain rule over n's inputs.
func (g *Graph) forwardDerivative(n Node) (string, error) {
	sum := 0.0
	for _, in := range g.neighbors(n.ID(), inputDirection) {
		dIn, ok := g.derivatives[in]
		if !ok {
			continue
		}
		local, err := n.CalculateDerivative(g.nodes[in], g)
		if err != nil {
			return "", err
		}
		term, err := multiply(dIn, local)
		if err != nil {
			return "", fmt.Errorf("node %s via %s: %w", n.ID(), in, err)
		}
		sum += term
	}
	return expr.FormatNumber(sum), nil
}

func multiply(a, b string) (float64, error) {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, a)
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, b)
	}
	return x * y, nil
}

// propagate wraps a pass with logging, metrics and a span.
func (g *Graph) propagate(kind string, pass func(ctx context.Context) ([]string, error)) ([]string, error) {
	ctx, span := g.spans.StartPropagationSpan(context.Background(), g.id, kind)
	done := observability.TimedOperation()
	observability.LogPropagationStart(g.logger, kind)

	updated, err := pass(ctx)

	g.finishPropagation(ctx, span, kind, len(updated), done(), err)
	return updated, err
}

func (g *Graph) finishPropagation(ctx context.Context, span trace.Span, kind string, nodes int, elapsed time.Duration, err error) {
	g.metrics.RecordPropagation(ctx, kind, nodes, elapsed, err)
	if err != nil {
		var uerr *UserCodeError
		if errors.As(err, &uerr) {
			g.metrics.RecordUserCodeError(ctx, uerr.OperationID, uerr.Function)
		}
		observability.LogPropagationError(g.logger, kind, err, observability.Milliseconds(elapsed))
	} else {
		observability.LogPropagationComplete(g.logger, kind, observability.Milliseconds(elapsed), nodes)
	}
	g.spans.EndSpanWithError(span, err)
}
