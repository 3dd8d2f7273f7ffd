package oplib

import (
	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// Port ids used by the built-in operations.
const (
	PortInputs = "x_i" // multi-edge
	PortA      = "a"
	PortB      = "b"
	PortX      = "x"
)

// Spec describes a built-in operation.
type Spec struct {
	ID       string
	Ports    []diffgraph.Port
	FCode    string
	DfdxCode string
}

func multi() []diffgraph.Port { return []diffgraph.Port{diffgraph.NewPort(PortInputs, true)} }

func binary() []diffgraph.Port {
	return []diffgraph.Port{diffgraph.NewPort(PortA, false), diffgraph.NewPort(PortB, false)}
}

func single() []diffgraph.Port { return []diffgraph.Port{diffgraph.NewPort(PortX, false)} }

// BuiltinSpecs lists the built-in operations.
//
// dfdx programs use has(port, target) to select the terms where the target
// is connected, so a node wired to several ports gets the sum of the partials.
func BuiltinSpecs() []Spec {
	return []Spec{
		{
			ID:       "sum",
			Ports:    multi(),
			FCode:    "f = sum(x_i)",
			DfdxCode: "dfdx = has(x_i, target)",
		},
		{
			ID:    "product",
			Ports: multi(),
			FCode: "f = prod(x_i)",
			// d/dx_k of a product is the product of the other factors.
			DfdxCode: "dfdx = if(has(x_i, target) > 0, has(x_i, target) * prod(without(x_i, target)), 0)",
		},
		{
			ID:       "difference",
			Ports:    binary(),
			FCode:    "f = a - b",
			DfdxCode: "dfdx = has(a, target) - has(b, target)",
		},
		{
			ID:    "quotient",
			Ports: binary(),
			FCode: "f = a / b",
			DfdxCode: "da = has(a, target) / b\n" +
				"db = has(b, target) * -a / b ^ 2\n" +
				"dfdx = da + db",
		},
		{
			ID:    "power",
			Ports: binary(),
			FCode: "f = a ^ b",
			DfdxCode: "da = if(has(a, target) > 0, b * a ^ (b - 1), 0)\n" +
				"db = if(has(b, target) > 0, ln(a) * a ^ b, 0)\n" +
				"dfdx = da + db",
		},
		{
			ID:       "negate",
			Ports:    single(),
			FCode:    "f = -x",
			DfdxCode: "dfdx = -has(x, target)",
		},
		{
			ID:       "square",
			Ports:    single(),
			FCode:    "f = x ^ 2",
			DfdxCode: "dfdx = has(x, target) * 2 * x",
		},
		{
			ID:       "sin",
			Ports:    single(),
			FCode:    "f = sin(x)",
			DfdxCode: "dfdx = has(x, target) * cos(x)",
		},
		{
			ID:       "cos",
			Ports:    single(),
			FCode:    "f = cos(x)",
			DfdxCode: "dfdx = has(x, target) * -sin(x)",
		},
		{
			ID:       "exp",
			Ports:    single(),
			FCode:    "f = exp(x)",
			DfdxCode: "dfdx = has(x, target) * exp(x)",
		},
		{
			ID:       "log",
			Ports:    single(),
			FCode:    "f = ln(x)",
			DfdxCode: "dfdx = has(x, target) / x",
		},
		{
			ID:    "sigmoid",
			Ports: single(),
			FCode: "f = 1 / (1 + exp(-x))",
			DfdxCode: "s = 1 / (1 + exp(-x))\n" +
				"dfdx = has(x, target) * s * (1 - s)",
		},
		{
			ID:       "relu",
			Ports:    single(),
			FCode:    "f = max(x, 0)",
			DfdxCode: "dfdx = has(x, target) * (x > 0)",
		},
	}
}

// Builtins returns a new library holding every built-in operation.
// Options apply to each operation, e.g. a shared evaluator or logger.
func Builtins(opts ...diffgraph.OperationOption) *Library {
	l := New()
	for _, s := range BuiltinSpecs() {
		l.MustRegister(diffgraph.NewOperation(s.ID, s.Ports, s.FCode, s.DfdxCode, opts...))
	}
	return l
}
