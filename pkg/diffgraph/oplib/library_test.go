package oplib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/expr"
)

func TestLibrary_RegisterAndGet(t *testing.T) {
	l := New()
	op := diffgraph.NewOperation("id", []diffgraph.Port{diffgraph.NewPort("x", false)}, "f = sum(x)", "dfdx = has(x, target)")

	require.NoError(t, l.Register(op))
	got, ok := l.Get("id")
	require.True(t, ok)
	assert.Same(t, op, got)
	assert.True(t, l.Has("id"))
	assert.Equal(t, 1, l.Len())

	replacement := diffgraph.NewOperation("id", nil, "f = 0", "dfdx = 0")
	require.NoError(t, l.Register(replacement))
	got, _ = l.Get("id")
	assert.Same(t, replacement, got)
	assert.Equal(t, 1, l.Len())
}

func TestLibrary_RegisterInvalid(t *testing.T) {
	l := New()
	assert.Error(t, l.Register(nil))
	assert.Error(t, l.Register(diffgraph.NewOperation("", nil, "", "")))
	assert.Panics(t, func() { l.MustRegister(nil) })
}

func TestLibrary_LookupAndDelete(t *testing.T) {
	l := Builtins()

	op, err := l.Lookup("sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", op.ID())

	l.Delete("sum")
	assert.False(t, l.Has("sum"))
	_, err = l.Lookup("sum")
	assert.ErrorIs(t, err, diffgraph.ErrUnknownOperation)
}

func TestLibrary_IDsSorted(t *testing.T) {
	ids := Builtins().IDs()
	assert.IsNonDecreasing(t, ids)
	assert.Contains(t, ids, "sigmoid")
	assert.Len(t, ids, len(BuiltinSpecs()))
}

// evalNode builds inputs → op and returns the op's value and the
// derivative of op with respect to wrt.
func evalNode(t *testing.T, lib *Library, opID string, inputs map[string][]float64, wrt string) (string, string) {
	t.Helper()
	op, err := lib.Lookup(opID)
	require.NoError(t, err)

	g := diffgraph.NewGraph()
	require.NoError(t, g.AddNode(diffgraph.NewOperationNode("out", op)))
	for _, p := range op.Ports() {
		for i, v := range inputs[p.ID()] {
			id := p.ID() + string(rune('0'+i))
			require.NoError(t, g.AddNode(diffgraph.NewVariable(id, expr.FormatNumber(v))))
			require.NoError(t, g.Connect(id, "out", p.ID()))
		}
	}
	_, err = g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("out"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)

	v, err := g.NodeValue("out")
	require.NoError(t, err)
	return v, g.NodeDerivative(wrt)
}

func TestBuiltins_ValuesAndDerivatives(t *testing.T) {
	lib := Builtins()

	tests := []struct {
		op        string
		inputs    map[string][]float64
		wrt       string
		wantValue string
		wantDeriv string
	}{
		{"sum", map[string][]float64{PortInputs: {1, 2, 3}}, "x_i1", "6", "1"},
		{"product", map[string][]float64{PortInputs: {2, 3, 4}}, "x_i1", "24", "8"},
		{"difference", map[string][]float64{PortA: {5}, PortB: {3}}, "b0", "2", "-1"},
		{"quotient", map[string][]float64{PortA: {6}, PortB: {2}}, "a0", "3", "0.5"},
		{"quotient", map[string][]float64{PortA: {6}, PortB: {2}}, "b0", "3", "-1.5"},
		{"power", map[string][]float64{PortA: {2}, PortB: {3}}, "a0", "8", "12"},
		{"negate", map[string][]float64{PortX: {4}}, "x0", "-4", "-1"},
		{"square", map[string][]float64{PortX: {-3}}, "x0", "9", "-6"},
		{"sin", map[string][]float64{PortX: {0}}, "x0", "0", "1"},
		{"cos", map[string][]float64{PortX: {0}}, "x0", "1", "0"},
		{"exp", map[string][]float64{PortX: {0}}, "x0", "1", "1"},
		{"log", map[string][]float64{PortX: {1}}, "x0", "0", "1"},
		{"sigmoid", map[string][]float64{PortX: {0}}, "x0", "0.5", "0.25"},
		{"relu", map[string][]float64{PortX: {-2}}, "x0", "0", "0"},
		{"relu", map[string][]float64{PortX: {2}}, "x0", "2", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.op+"/"+tt.wrt, func(t *testing.T) {
			v, d := evalNode(t, lib, tt.op, tt.inputs, tt.wrt)
			assert.Equal(t, tt.wantValue, v)
			assert.Equal(t, tt.wantDeriv, d)
		})
	}
}
