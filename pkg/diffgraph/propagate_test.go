package diffgraph

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUpdateFValues_Sum tests the basic sum scenario.
func TestUpdateFValues_Sum(t *testing.T) {
	g := sumGraph(t)

	updated, err := g.UpdateFValues()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2", "s"}, updated)
	assert.Equal(t, "s", updated[len(updated)-1])

	v, _ := g.NodeValue("s")
	assert.Equal(t, "3", v)

	require.NoError(t, g.SetNodeValue("v1", "10"))
	_, err = g.UpdateFValues()
	require.NoError(t, err)
	v, _ = g.NodeValue("s")
	assert.Equal(t, "11", v)
}

// TestUpdateFValues_Empty tests an empty graph.
func TestUpdateFValues_Empty(t *testing.T) {
	updated, err := NewGraph().UpdateFValues()
	require.NoError(t, err)
	assert.Empty(t, updated)
}

// TestUpdateFValues_Order tests that every node is updated exactly once and
// after all of its inputs, across overlapping and disjoint chains.
func TestUpdateFValues_Order(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		NewVariable("a", "1"),
		NewVariable("b", "2"),
		NewConstant("k", "3"),
		NewOperationNode("ab", sumOp()),
		NewOperationNode("abk", mulOp()),
		NewOperationNode("sq", squareOp()),
		NewOperationNode("top", sumOp()),
		NewVariable("island", "7"),
		NewOperationNode("island_sq", squareOp()),
	)
	mustConnect(t, g,
		edge{"a", "ab", "x_i"},
		edge{"b", "ab", "x_i"},
		edge{"ab", "abk", "a"},
		edge{"k", "abk", "b"},
		edge{"ab", "sq", "x"},
		edge{"abk", "top", "x_i"},
		edge{"sq", "top", "x_i"},
		edge{"a", "top", "x_i"},
		edge{"island", "island_sq", "x"},
	)

	updated, err := g.UpdateFValues()
	require.NoError(t, err)
	require.Len(t, updated, 9)

	position := make(map[string]int, len(updated))
	for i, id := range updated {
		_, dup := position[id]
		require.False(t, dup, "node %s updated twice", id)
		position[id] = i
	}
	for _, n := range g.Nodes() {
		for _, in := range n.Relationship().InputNodes() {
			assert.Less(t, position[in], position[n.ID()], "%s must come after %s", n.ID(), in)
		}
	}

	// ab=3, abk=9, sq=9, top=9+9+1
	top, _ := g.NodeValue("top")
	assert.Equal(t, "19", top)
	island, _ := g.NodeValue("island_sq")
	assert.Equal(t, "49", island)
}

// TestUpdateFValues_UserCodeError tests that a failing node stops the pass
// and reports what was updated before it.
func TestUpdateFValues_UserCodeError(t *testing.T) {
	m := &recordingMetrics{}
	spans := &recordingSpans{}
	g := NewGraph(WithMetrics(m), WithSpanManager(spans))

	bad := NewOperation("bad", []Port{NewPort("x", false)}, "f = undefined_name", "dfdx = 0")
	mustAdd(t, g, NewVariable("v", "1"), NewOperationNode("n", bad))
	mustConnect(t, g, edge{"v", "n", "x"})

	updated, err := g.UpdateFValues()
	var uerr *UserCodeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "bad", uerr.OperationID)
	assert.Equal(t, []string{"v"}, updated)

	v, _ := g.NodeValue("n")
	assert.Equal(t, "0", v)

	require.Len(t, m.propagations, 1)
	assert.Equal(t, "values", m.propagations[0].kind)
	assert.Error(t, m.propagations[0].err)
	assert.Equal(t, []string{"bad/f"}, m.userCode)

	assert.Equal(t, []string{"values"}, spans.started)
	require.Len(t, spans.ended, 1)
	assert.Error(t, spans.ended[0])
}

// TestUpdateDerivatives_SumReverse tests the sum scenario in Reverse mode.
func TestUpdateDerivatives_SumReverse(t *testing.T) {
	g := sumGraph(t)
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))

	updated, err := g.UpdateDerivatives()
	require.NoError(t, err)
	assert.Equal(t, "s", updated[0])
	assert.ElementsMatch(t, []string{"s", "v1", "v2"}, updated)

	assert.Equal(t, "1", g.NodeDerivative("s"))
	assert.Equal(t, "1", g.NodeDerivative("v1"))
	assert.Equal(t, "1", g.NodeDerivative("v2"))
}

// TestUpdateDerivatives_NoTarget tests that no target yields an empty cache.
func TestUpdateDerivatives_NoTarget(t *testing.T) {
	g := sumGraph(t)
	updated, err := g.UpdateDerivatives()
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Empty(t, g.Derivatives())
}

// TestUpdateDerivatives_Chain tests both modes on v → sq1 → sq2 (v^4).
func TestUpdateDerivatives_Chain(t *testing.T) {
	tests := []struct {
		name   string
		mode   DifferentiationMode
		target string
		want   map[string]string
	}{
		{
			name:   "reverse from output",
			mode:   Reverse,
			target: "sq2",
			want:   map[string]string{"sq2": "1", "sq1": "18", "v": "108"},
		},
		{
			name:   "reverse from middle",
			mode:   Reverse,
			target: "sq1",
			want:   map[string]string{"sq1": "1", "v": "6"},
		},
		{
			name:   "forward from input",
			mode:   Forward,
			target: "v",
			want:   map[string]string{"v": "1", "sq1": "6", "sq2": "108"},
		},
		{
			name:   "forward from middle",
			mode:   Forward,
			target: "sq1",
			want:   map[string]string{"sq1": "1", "sq2": "18"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := chainGraph(t, WithMode(tt.mode))
			_, err := g.UpdateFValues()
			require.NoError(t, err)
			require.NoError(t, g.SetTargetNode(tt.target))

			updated, err := g.UpdateDerivatives()
			require.NoError(t, err)
			assert.Equal(t, tt.target, updated[0])
			assert.Equal(t, tt.want, g.Derivatives())
		})
	}
}

// TestUpdateDerivatives_Diamond tests that converging paths are summed.
func TestUpdateDerivatives_Diamond(t *testing.T) {
	for _, mode := range []DifferentiationMode{Reverse, Forward} {
		t.Run(mode.String(), func(t *testing.T) {
			g := NewGraph(WithMode(mode))
			mustAdd(t, g,
				NewVariable("v", "2"),
				NewOperationNode("l", squareOp()),
				NewOperationNode("r", squareOp()),
				NewOperationNode("s", sumOp()),
			)
			mustConnect(t, g,
				edge{"v", "l", "x"},
				edge{"v", "r", "x"},
				edge{"l", "s", "x_i"},
				edge{"r", "s", "x_i"},
			)
			_, err := g.UpdateFValues()
			require.NoError(t, err)

			target, probe := "s", "v"
			if mode == Forward {
				target, probe = "v", "s"
			}
			require.NoError(t, g.SetTargetNode(target))
			_, err = g.UpdateDerivatives()
			require.NoError(t, err)

			// s = 2v^2, ds/dv = 4v
			assert.Equal(t, "8", g.NodeDerivative(probe))
		})
	}
}

// TestUpdateDerivatives_SameInputOnTwoPorts tests that a node feeding two
// ports of one consumer is counted once, with the operation adding both
// partials.
func TestUpdateDerivatives_SameInputOnTwoPorts(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, NewVariable("v", "3"), NewOperationNode("m", mulOp()))
	mustConnect(t, g, edge{"v", "m", "a"}, edge{"v", "m", "b"})

	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("m"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)

	m, _ := g.NodeValue("m")
	assert.Equal(t, "9", m)
	assert.Equal(t, "6", g.NodeDerivative("v"))

	require.NoError(t, g.SetDifferentiationMode(Forward))
	require.NoError(t, g.SetTargetNode("v"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)
	assert.Equal(t, "6", g.NodeDerivative("m"))
}

// TestUpdateDerivatives_DisjointSubgraph tests that nodes unrelated to the
// target get no cache entry.
func TestUpdateDerivatives_DisjointSubgraph(t *testing.T) {
	g := sumGraph(t)
	mustAdd(t, g,
		NewVariable("w1", "5"),
		NewVariable("w2", "6"),
		NewOperationNode("t", sumOp()),
	)
	mustConnect(t, g, edge{"w1", "t", "x_i"}, edge{"w2", "t", "x_i"})

	_, err := g.UpdateFValues()
	require.NoError(t, err)
	tv, _ := g.NodeValue("t")
	assert.Equal(t, "11", tv)

	require.NoError(t, g.SetTargetNode("s"))
	updated, err := g.UpdateDerivatives()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"s", "v1", "v2"}, updated)
	for _, id := range []string{"w1", "w2", "t"} {
		assert.NotContains(t, g.Derivatives(), id)
		assert.Equal(t, "0", g.NodeDerivative(id))
	}
}

// TestUpdateDerivatives_ConstantsAreZero tests that constants contribute
// nothing in either direction.
func TestUpdateDerivatives_ConstantsAreZero(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		NewVariable("x", "3"),
		NewConstant("k", "4"),
		NewOperationNode("m", mulOp()),
	)
	mustConnect(t, g, edge{"x", "m", "a"}, edge{"k", "m", "b"})
	_, err := g.UpdateFValues()
	require.NoError(t, err)

	require.NoError(t, g.SetTargetNode("m"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)
	assert.Equal(t, "4", g.NodeDerivative("x"))
	assert.Equal(t, "0", g.NodeDerivative("k"))

	require.NoError(t, g.SetDifferentiationMode(Forward))
	require.NoError(t, g.SetTargetNode("k"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)
	assert.Equal(t, "0", g.NodeDerivative("k"))
	assert.Equal(t, "0", g.NodeDerivative("m"))
}

// TestUpdateDerivatives_Reorder tests that the target is filled first and
// every node follows the neighbors it depends on.
func TestUpdateDerivatives_Reorder(t *testing.T) {
	g := chainGraph(t)
	mustAdd(t, g, NewOperationNode("s", sumOp()))
	mustConnect(t, g, edge{"v", "s", "x_i"}, edge{"sq2", "s", "x_i"})
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))

	updated, err := g.UpdateDerivatives()
	require.NoError(t, err)
	require.Equal(t, "s", updated[0])
	assert.Less(t, slices.Index(updated, "sq2"), slices.Index(updated, "sq1"))
	assert.Less(t, slices.Index(updated, "sq1"), slices.Index(updated, "v"))

	// s = v + v^4, ds/dv = 1 + 4v^3
	assert.Equal(t, "109", g.NodeDerivative("v"))
}

// TestUpdateDerivatives_Observability tests metrics and span wiring.
func TestUpdateDerivatives_Observability(t *testing.T) {
	m := &recordingMetrics{}
	spans := &recordingSpans{}
	g := sumGraph(t, WithMetrics(m), WithSpanManager(spans))
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)

	require.Len(t, m.propagations, 2)
	assert.Equal(t, propagationRecord{kind: "values", nodes: 3}, m.propagations[0])
	assert.Equal(t, propagationRecord{kind: "derivatives", nodes: 3}, m.propagations[1])
	assert.Empty(t, m.userCode)

	assert.Equal(t, []string{"values", "derivatives"}, spans.started)
	assert.Equal(t, []error{nil, nil}, spans.ended)
	assert.Equal(t, []string{"values.updated", "derivatives.updated"}, spans.events)
}

// TestUpdateDerivatives_UserCodeError tests a failing dfdx.
func TestUpdateDerivatives_UserCodeError(t *testing.T) {
	g := NewGraph()
	op := NewOperation("half", []Port{NewPort("x", false)}, "f = sum(x)", "dfdx = oops(x)")
	mustAdd(t, g, NewVariable("v", "1"), NewOperationNode("n", op))
	mustConnect(t, g, edge{"v", "n", "x"})
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("n"))

	updated, err := g.UpdateDerivatives()
	var uerr *UserCodeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, FunctionDfdx, uerr.Function)
	assert.Equal(t, []string{"n"}, updated)
}
