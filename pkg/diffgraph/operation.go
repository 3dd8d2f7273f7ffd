package diffgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
)

// Entry names that operation code must define.
const (
	FunctionF    = "f"
	FunctionDfdx = "dfdx"
)

// ErrNonTextResult indicates operation code that produced something other
// than a number rendered as text.
var ErrNonTextResult = errors.New("operation code did not return a numeric text result")

// Evaluator runs operation code. It is the engine's only dependency on a
// scripting technology; ExprEvaluator is the default implementation.
//
// code is the stored program with the entry call appended. ports maps each
// input port id to its connected node ids in insertion order, values maps
// every connected node id to its current value, and xID is the node being
// differentiated against. Implementations return the result as text; any
// other result type is reported as a UserCodeError by Operation.
type Evaluator interface {
	EvalF(code string, ports map[string][]string, values map[string]string) (any, error)
	EvalDfdx(code string, ports map[string][]string, values map[string]string, xID string) (any, error)
}

// Operation is a user-authored pair of programs: f computes a value from the
// inputs and dfdx computes the partial derivative with respect to one input.
// Its identity is fixed; the code may be edited in place and every node using
// the operation sees the edit.
//
// Operation is not safe for concurrent use while its code is being edited.
type Operation struct {
	id        string
	ports     []Port
	fCode     string
	dfdxCode  string
	evaluator Evaluator
	logger    *slog.Logger
}

// OperationOption configures an Operation.
type OperationOption func(*Operation)

// WithEvaluator sets the evaluator used to run the code.
// Default: a shared ExprEvaluator.
func WithEvaluator(e Evaluator) OperationOption {
	return func(o *Operation) {
		if e != nil {
			o.evaluator = e
		}
	}
}

// WithOperationLogger sets the logger that user-code failures are written to.
// Default: slog.Default()
func WithOperationLogger(l *slog.Logger) OperationOption {
	return func(o *Operation) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOperation creates an operation with the given input ports and code.
func NewOperation(id string, ports []Port, fCode, dfdxCode string, opts ...OperationOption) *Operation {
	o := &Operation{
		id:        id,
		ports:     slices.Clone(ports),
		fCode:     fCode,
		dfdxCode:  dfdxCode,
		evaluator: defaultEvaluator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ID returns the operation identifier.
func (o *Operation) ID() string { return o.id }

// Ports returns the input ports every node using this operation declares.
func (o *Operation) Ports() []Port { return slices.Clone(o.ports) }

// FCode returns the value program.
func (o *Operation) FCode() string { return o.fCode }

// DfdxCode returns the derivative program.
func (o *Operation) DfdxCode() string { return o.dfdxCode }

// SetFCode replaces the value program.
func (o *Operation) SetFCode(code string) { o.fCode = code }

// SetDfdxCode replaces the derivative program.
func (o *Operation) SetDfdxCode(code string) { o.dfdxCode = code }

// EvalF runs the value program.
func (o *Operation) EvalF(ports map[string][]string, values map[string]string) (string, error) {
	return o.run(FunctionF, o.fCode, func(code string) (any, error) {
		return o.evaluator.EvalF(code, ports, values)
	})
}

// EvalDfdx runs the derivative program with respect to xID.
func (o *Operation) EvalDfdx(ports map[string][]string, values map[string]string, xID string) (string, error) {
	return o.run(FunctionDfdx, o.dfdxCode, func(code string) (any, error) {
		return o.evaluator.EvalDfdx(code, ports, values, xID)
	})
}

// run renders the program, executes it and converts every failure mode,
// panics included, into a logged UserCodeError.
func (o *Operation) run(function, code string, call func(rendered string) (any, error)) (result string, err error) {
	rendered := RenderCode(code, function)

	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = o.fail(function, rendered, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := call(rendered)
	if err != nil {
		return "", o.fail(function, rendered, err)
	}

	s, ok := v.(string)
	if !ok {
		return "", o.fail(function, rendered, fmt.Errorf("%w: got %T", ErrNonTextResult, v))
	}
	if _, perr := strconv.ParseFloat(s, 64); perr != nil {
		return "", o.fail(function, rendered, fmt.Errorf("%w: got %q", ErrNonTextResult, s))
	}
	return s, nil
}

func (o *Operation) fail(function, rendered string, cause error) error {
	uerr := &UserCodeError{
		OperationID: o.id,
		Function:    function,
		Code:        rendered,
		Stack:       string(debug.Stack()),
		Err:         cause,
	}
	observability.LogUserCodeError(o.logger, o.id, function, cause)
	return uerr
}

// RenderCode appends the entry call for function to code.
func RenderCode(code, function string) string {
	return strings.TrimRight(code, "\n") + "\n" + function
}
