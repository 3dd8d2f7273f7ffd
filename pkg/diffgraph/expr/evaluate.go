package expr

import (
	"fmt"
	"math"
)

// Func is a function callable from a program.
// Arguments arrive fully evaluated.
type Func func(args []any) (any, error)

// Evaluator runs programs with the built-in functions plus any registered
// custom functions. An Evaluator is immutable after New and safe to share.
type Evaluator struct {
	funcs map[string]Func
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFunction registers a custom function.
// A custom function with the name of a built-in replaces the built-in.
func WithFunction(name string, fn Func) Option {
	return func(e *Evaluator) {
		if fn == nil || isReserved(name) {
			return
		}
		e.funcs[name] = fn
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{funcs: make(map[string]Func, len(builtins))}
	for name, fn := range builtins {
		e.funcs[name] = fn
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program is a parsed program that can be run many times.
type Program struct {
	src   string
	stmts []node
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	stmts, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{src: src, stmts: stmts}, nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string {
	return p.src
}

// Run executes a compiled program against vars and returns the value of its
// last statement. Assignments shadow vars for the remainder of the run.
func (e *Evaluator) Run(p *Program, vars map[string]any) (any, error) {
	env := &scope{vars: vars, locals: make(map[string]any)}
	var result any
	for _, stmt := range p.stmts {
		v, err := e.eval(stmt, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// Evaluate compiles and runs src against vars.
func (e *Evaluator) Evaluate(src string, vars map[string]any) (any, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return e.Run(p, vars)
}

// EvaluateNumber evaluates src and requires a numeric result.
func (e *Evaluator) EvaluateNumber(src string, vars map[string]any) (float64, error) {
	v, err := e.Evaluate(src, vars)
	if err != nil {
		return 0, err
	}
	return toNumber(v)
}

// Eval is a convenience function that evaluates src using
// the default evaluator (no custom functions).
func Eval(src string, vars map[string]any) (any, error) {
	return New().Evaluate(src, vars)
}

type scope struct {
	vars   map[string]any
	locals map[string]any
}

func (s *scope) lookup(name string) (any, error) {
	if v, ok := s.locals[name]; ok {
		return v, nil
	}
	if v, ok := s.vars[name]; ok {
		return normalize(v)
	}
	return nil, fmt.Errorf("%w: %s", ErrUndefinedName, name)
}

func (e *Evaluator) eval(n node, env *scope) (any, error) {
	switch x := n.(type) {
	case *numberLit:
		return x.value, nil
	case *stringLit:
		return x.value, nil
	case *boolLit:
		return x.value, nil
	case *ident:
		return env.lookup(x.name)
	case *assignStmt:
		v, err := e.eval(x.x, env)
		if err != nil {
			return nil, err
		}
		env.locals[x.name] = v
		return v, nil
	case *unaryExpr:
		return e.evalUnary(x, env)
	case *binaryExpr:
		return e.evalBinary(x, env)
	case *callExpr:
		return e.evalCall(x, env)
	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

func (e *Evaluator) evalUnary(x *unaryExpr, env *scope) (any, error) {
	v, err := e.eval(x.x, env)
	if err != nil {
		return nil, err
	}
	if x.op == "not" {
		return !IsTruthy(v), nil
	}
	f, err := toNumber(v)
	if err != nil {
		return nil, located(x, err)
	}
	return -f, nil
}

func (e *Evaluator) evalBinary(x *binaryExpr, env *scope) (any, error) {
	left, err := e.eval(x.left, env)
	if err != nil {
		return nil, err
	}

	// Short-circuit logical operators.
	switch x.op {
	case "and":
		if !IsTruthy(left) {
			return false, nil
		}
		right, err := e.eval(x.right, env)
		if err != nil {
			return nil, err
		}
		return IsTruthy(right), nil
	case "or":
		if IsTruthy(left) {
			return true, nil
		}
		right, err := e.eval(x.right, env)
		if err != nil {
			return nil, err
		}
		return IsTruthy(right), nil
	}

	right, err := e.eval(x.right, env)
	if err != nil {
		return nil, err
	}

	if comparisonOps[x.op] {
		ok, err := Compare(left, right, x.op)
		if err != nil {
			return nil, located(x, err)
		}
		return ok, nil
	}

	l, err := toNumber(left)
	if err != nil {
		return nil, located(x, err)
	}
	r, err := toNumber(right)
	if err != nil {
		return nil, located(x, err)
	}
	switch x.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return math.Mod(l, r), nil
	case "^":
		return math.Pow(l, r), nil
	default:
		return nil, located(x, fmt.Errorf("unknown operator: %s", x.op))
	}
}

func (e *Evaluator) evalCall(x *callExpr, env *scope) (any, error) {
	if x.name == "if" {
		return e.evalIf(x, env)
	}
	fn, ok := e.funcs[x.name]
	if !ok {
		return nil, located(x, fmt.Errorf("%w: %s", ErrUnknownFunction, x.name))
	}
	args := make([]any, len(x.args))
	for i, a := range x.args {
		v, err := e.eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := fn(args)
	if err != nil {
		return nil, located(x, fmt.Errorf("%s: %w", x.name, err))
	}
	return v, nil
}

func (e *Evaluator) evalIf(x *callExpr, env *scope) (any, error) {
	if len(x.args) != 3 {
		return nil, located(x, fmt.Errorf("if: %w: want 3, got %d", ErrArgCount, len(x.args)))
	}
	cond, err := e.eval(x.args[0], env)
	if err != nil {
		return nil, err
	}
	if IsTruthy(cond) {
		return e.eval(x.args[1], env)
	}
	return e.eval(x.args[2], env)
}

// located prefixes err with the source position of n.
func located(n node, err error) error {
	line, col := n.position()
	return fmt.Errorf("at %d:%d: %w", line, col, err)
}
