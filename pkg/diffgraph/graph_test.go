package diffgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewGraph verifies the initial state.
func TestNewGraph(t *testing.T) {
	g := NewGraph()
	assert.NotEmpty(t, g.ID())
	assert.Empty(t, g.Nodes())
	assert.Equal(t, Reverse, g.DifferentiationMode())
	_, ok := g.TargetNode()
	assert.False(t, ok)
	assert.Empty(t, g.Derivatives())

	assert.Equal(t, Forward, NewGraph(WithMode(Forward)).DifferentiationMode())
	assert.NotEqual(t, g.ID(), NewGraph().ID())
}

// TestNewNodeID tests generated ids.
func TestNewNodeID(t *testing.T) {
	id := NewNodeID(TypeVariable)
	assert.True(t, strings.HasPrefix(id, "variable-"), id)
	assert.Len(t, id, len("variable-")+8)
	assert.NotEqual(t, id, NewNodeID(TypeVariable))
}

// TestGraph_AddNode_Errors tests the node admission rules.
func TestGraph_AddNode_Errors(t *testing.T) {
	connected := NewVariable("connected", "1")
	connected.Relationship().AddOutputNode("somewhere")

	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{"nil node", nil, ErrInvalidNode},
		{"empty id", NewVariable("", "1"), ErrInvalidNode},
		{"duplicate id", NewConstant("v", "2"), ErrDuplicateNode},
		{"pre-connected", connected, ErrNodeConnected},
		{"bad variable value", NewVariable("bad", "one"), ErrInvalidValue},
		{"bad constant value", NewConstant("bad", ""), ErrInvalidValue},
		{"nan value", NewVariable("bad", "NaN"), ErrInvalidValue},
		{"infinite value", NewConstant("bad", "Inf"), ErrInvalidValue},
		{"hex value", NewVariable("bad", "0x1p-2"), ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			mustAdd(t, g, NewVariable("v", "1"))

			err := g.AddNode(tt.node)
			require.ErrorIs(t, err, tt.wantErr)

			var serr *StructuralError
			assert.ErrorAs(t, err, &serr)
			assert.Len(t, g.Nodes(), 1)
		})
	}
}

// TestGraph_Nodes_InsertionOrder tests deterministic node listing.
func TestGraph_Nodes_InsertionOrder(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, NewVariable("c", "1"), NewVariable("a", "1"), NewVariable("b", "1"))

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

// TestGraph_Lookups tests node accessors and their not-found errors.
func TestGraph_Lookups(t *testing.T) {
	g := sumGraph(t)

	assert.True(t, g.HasNode("s"))
	assert.False(t, g.HasNode("zzz"))

	nt, err := g.NodeType("s")
	require.NoError(t, err)
	assert.Equal(t, TypeOperation, nt)

	v, err := g.NodeValue("v1")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	_, err = g.Node("zzz")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = g.NodeType("zzz")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = g.NodeValue("zzz")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.ErrorIs(t, g.SetNodeValue("zzz", "1"), ErrNodeNotFound)
}

// TestGraph_SetNodeValue tests value assignment through the graph.
func TestGraph_SetNodeValue(t *testing.T) {
	g := sumGraph(t)

	require.NoError(t, g.SetNodeValue("v1", "10"))
	v, _ := g.NodeValue("v1")
	assert.Equal(t, "10", v)

	assert.ErrorIs(t, g.SetNodeValue("v1", "ten"), ErrInvalidValue)
	assert.ErrorIs(t, g.SetNodeValue("s", "1"), ErrOperationValue)
}

// TestGraph_RemoveNode tests that every incident edge goes with the node.
func TestGraph_RemoveNode(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		NewVariable("v", "2"),
		NewOperationNode("m", mulOp()),
		NewOperationNode("s", sumOp()),
	)
	// v feeds m on both ports; m feeds s.
	mustConnect(t, g,
		edge{"v", "m", "a"},
		edge{"v", "m", "b"},
		edge{"m", "s", "x_i"},
	)

	require.NoError(t, g.RemoveNode("m"))
	assert.False(t, g.HasNode("m"))

	v, _ := g.Node("v")
	s, _ := g.Node("s")
	assert.Empty(t, v.Relationship().OutputNodes())
	assert.Empty(t, s.Relationship().InputNodes())
	assert.False(t, v.Relationship().HasConnections())
	assert.False(t, s.Relationship().HasConnections())

	assert.ErrorIs(t, g.RemoveNode("m"), ErrNodeNotFound)
}

// TestGraph_RemoveNode_ClearsTarget tests removing the target.
func TestGraph_RemoveNode_ClearsTarget(t *testing.T) {
	g := sumGraph(t)
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)
	require.NotEmpty(t, g.Derivatives())

	require.NoError(t, g.RemoveNode("s"))
	_, ok := g.TargetNode()
	assert.False(t, ok)
	assert.Empty(t, g.Derivatives())
}

// TestGraph_RemoveNode_DropsCacheEntry tests removing a non-target node.
func TestGraph_RemoveNode_DropsCacheEntry(t *testing.T) {
	g := sumGraph(t)
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode("v2"))
	assert.NotContains(t, g.Derivatives(), "v2")
	assert.Equal(t, "1", g.NodeDerivative("v1"))
}

// TestGraph_SetTargetNode tests target selection.
func TestGraph_SetTargetNode(t *testing.T) {
	g := sumGraph(t)

	assert.ErrorIs(t, g.SetTargetNode("zzz"), ErrNodeNotFound)
	_, ok := g.TargetNode()
	assert.False(t, ok)

	require.NoError(t, g.SetTargetNode("s"))
	target, ok := g.TargetNode()
	assert.True(t, ok)
	assert.Equal(t, "s", target)

	require.NoError(t, g.SetTargetNode(""))
	_, ok = g.TargetNode()
	assert.False(t, ok)
}

// TestGraph_CacheClearedOnChanges tests that mode and target changes
// invalidate cached derivatives.
func TestGraph_CacheClearedOnChanges(t *testing.T) {
	tests := []struct {
		name   string
		change func(g *Graph) error
	}{
		{"mode change", func(g *Graph) error { return g.SetDifferentiationMode(Forward) }},
		{"same mode", func(g *Graph) error { return g.SetDifferentiationMode(Reverse) }},
		{"target change", func(g *Graph) error { return g.SetTargetNode("v1") }},
		{"same target", func(g *Graph) error { return g.SetTargetNode("s") }},
		{"target cleared", func(g *Graph) error { return g.SetTargetNode("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sumGraph(t)
			_, err := g.UpdateFValues()
			require.NoError(t, err)
			require.NoError(t, g.SetTargetNode("s"))
			_, err = g.UpdateDerivatives()
			require.NoError(t, err)
			require.NotEmpty(t, g.Derivatives())

			require.NoError(t, tt.change(g))
			assert.Empty(t, g.Derivatives())
			assert.Equal(t, "0", g.NodeDerivative("v1"))
		})
	}
}

// TestGraph_SetDifferentiationMode_Invalid tests mode validation.
func TestGraph_SetDifferentiationMode_Invalid(t *testing.T) {
	g := NewGraph()
	assert.ErrorIs(t, g.SetDifferentiationMode(DifferentiationMode(9)), ErrInvalidMode)
	assert.Equal(t, Reverse, g.DifferentiationMode())
}

// TestGraph_Derivatives_ReturnsCopy tests cache isolation.
func TestGraph_Derivatives_ReturnsCopy(t *testing.T) {
	g := sumGraph(t)
	_, err := g.UpdateFValues()
	require.NoError(t, err)
	require.NoError(t, g.SetTargetNode("s"))
	_, err = g.UpdateDerivatives()
	require.NoError(t, err)

	d := g.Derivatives()
	d["v1"] = "999"
	assert.Equal(t, "1", g.NodeDerivative("v1"))
}
