package diffgraph

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/expr"
)

// TargetVar is the name dfdx code uses for the id of the node being
// differentiated against. It shadows a port of the same name.
const TargetVar = "target"

// ExprEvaluator runs operation code written in the expr language.
//
// Each input port is bound to an expr.List of its connected nodes' values,
// keyed by node id. Numeric results are rendered with expr.FormatNumber;
// any other result is returned unchanged for Operation to reject.
//
// The most recently used programs are cached by source text, up to
// ProgramCacheSize. ExprEvaluator is safe for concurrent use.
type ExprEvaluator struct {
	eval     *expr.Evaluator
	programs *lru.Cache[string, *expr.Program]
}

// ProgramCacheSize bounds the compiled programs an ExprEvaluator keeps.
// Edited operation code leaves old versions behind; they age out.
const ProgramCacheSize = 512

// Compile-time interface check.
var _ Evaluator = (*ExprEvaluator)(nil)

var defaultEvaluator = NewExprEvaluator()

// NewExprEvaluator creates an evaluator; opts register custom functions.
func NewExprEvaluator(opts ...expr.Option) *ExprEvaluator {
	programs, err := lru.New[string, *expr.Program](ProgramCacheSize)
	if err != nil {
		panic(err) // only for a non-positive size
	}
	return &ExprEvaluator{eval: expr.New(opts...), programs: programs}
}

// EvalF implements Evaluator.
func (e *ExprEvaluator) EvalF(code string, ports map[string][]string, values map[string]string) (any, error) {
	vars, err := bindPorts(ports, values)
	if err != nil {
		return nil, err
	}
	return e.run(code, vars)
}

// EvalDfdx implements Evaluator.
func (e *ExprEvaluator) EvalDfdx(code string, ports map[string][]string, values map[string]string, xID string) (any, error) {
	vars, err := bindPorts(ports, values)
	if err != nil {
		return nil, err
	}
	vars[TargetVar] = xID
	return e.run(code, vars)
}

func (e *ExprEvaluator) run(code string, vars map[string]any) (any, error) {
	p, err := e.compile(code)
	if err != nil {
		return nil, err
	}
	v, err := e.eval.Run(p, vars)
	if err != nil {
		return nil, err
	}
	if f, ok := v.(float64); ok {
		return expr.FormatNumber(f), nil
	}
	return v, nil
}

func (e *ExprEvaluator) compile(code string) (*expr.Program, error) {
	if p, ok := e.programs.Get(code); ok {
		return p, nil
	}
	p, err := expr.Compile(code)
	if err != nil {
		return nil, err
	}
	e.programs.Add(code, p)
	return p, nil
}

// bindPorts turns the port snapshot into expr variables.
func bindPorts(ports map[string][]string, values map[string]string) (map[string]any, error) {
	vars := make(map[string]any, len(ports)+1)
	for portID, ids := range ports {
		list := make(expr.List, 0, len(ids))
		for _, id := range ids {
			raw, ok := values[id]
			if !ok {
				return nil, fmt.Errorf("no value for input %s on port %s", id, portID)
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("input %s on port %s: %w: %q", id, portID, ErrInvalidValue, raw)
			}
			list = append(list, expr.Item{Key: id, Value: f})
		}
		vars[portID] = list
	}
	return vars, nil
}
