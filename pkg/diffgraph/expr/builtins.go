package expr

import (
	"fmt"
	"math"
)

var builtins = map[string]Func{
	"sum":     aggregate(0, func(acc, v float64) float64 { return acc + v }),
	"prod":    aggregate(1, func(acc, v float64) float64 { return acc * v }),
	"count":   countFunc,
	"min":     extremum(math.Min),
	"max":     extremum(math.Max),
	"mean":    meanFunc,
	"has":     hasFunc,
	"without": withoutFunc,
	"abs":     unary(math.Abs),
	"sqrt":    unary(math.Sqrt),
	"exp":     unary(math.Exp),
	"ln":      unary(math.Log),
	"sin":     unary(math.Sin),
	"cos":     unary(math.Cos),
	"tan":     unary(math.Tan),
	"tanh":    unary(math.Tanh),
	"floor":   unary(math.Floor),
	"ceil":    unary(math.Ceil),
	"log":     logFunc,
	"pow":     powFunc,
}

// flatten collects the numbers in args, expanding lists.
func flatten(args []any) ([]float64, error) {
	var out []float64
	for _, a := range args {
		switch v := a.(type) {
		case List:
			out = append(out, v.Values()...)
		default:
			f, err := toNumber(v)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func aggregate(initial float64, step func(acc, v float64) float64) Func {
	return func(args []any) (any, error) {
		nums, err := flatten(args)
		if err != nil {
			return nil, err
		}
		acc := initial
		for _, n := range nums {
			acc = step(acc, n)
		}
		return acc, nil
	}
}

func extremum(pick func(a, b float64) float64) Func {
	return func(args []any) (any, error) {
		nums, err := flatten(args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, fmt.Errorf("%w: no values", ErrArgCount)
		}
		acc := nums[0]
		for _, n := range nums[1:] {
			acc = pick(acc, n)
		}
		return acc, nil
	}
}

func countFunc(args []any) (any, error) {
	nums, err := flatten(args)
	if err != nil {
		return nil, err
	}
	return float64(len(nums)), nil
}

func meanFunc(args []any) (any, error) {
	nums, err := flatten(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: no values", ErrArgCount)
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func listAndKey(args []any) (List, string, error) {
	if len(args) != 2 {
		return nil, "", fmt.Errorf("%w: want 2, got %d", ErrArgCount, len(args))
	}
	l, ok := args[0].(List)
	if !ok {
		return nil, "", fmt.Errorf("%w: first argument must be a list, got %s", ErrTypeMismatch, typeName(args[0]))
	}
	key, ok := args[1].(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: second argument must be a string, got %s", ErrTypeMismatch, typeName(args[1]))
	}
	return l, key, nil
}

func hasFunc(args []any) (any, error) {
	l, key, err := listAndKey(args)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, it := range l {
		if it.Key == key {
			n++
		}
	}
	return float64(n), nil
}

func withoutFunc(args []any) (any, error) {
	l, key, err := listAndKey(args)
	if err != nil {
		return nil, err
	}
	out := make(List, 0, len(l))
	removed := false
	for _, it := range l {
		if !removed && it.Key == key {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func unary(fn func(float64) float64) Func {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: want 1, got %d", ErrArgCount, len(args))
		}
		x, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func logFunc(args []any) (any, error) {
	switch len(args) {
	case 1:
		return unary(math.Log)(args)
	case 2:
		x, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		base, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		return math.Log(x) / math.Log(base), nil
	default:
		return nil, fmt.Errorf("%w: want 1 or 2, got %d", ErrArgCount, len(args))
	}
}

func powFunc(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: want 2, got %d", ErrArgCount, len(args))
	}
	x, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	y, err := toNumber(args[1])
	if err != nil {
		return nil, err
	}
	return math.Pow(x, y), nil
}
