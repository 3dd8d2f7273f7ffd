package diffgraph

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
)

// Graph owns a set of nodes, the edges between them, and the derivative
// cache for the current target and mode.
//
// Edges are validated before any mutation, so a failed call leaves the graph
// unchanged. The graph is always acyclic.
//
// Graph is NOT thread-safe. Callers that receive edits from several
// goroutines must serialize them.
//
// Example:
//
//	g := diffgraph.NewGraph()
//	_ = g.AddNode(diffgraph.NewVariable("v1", "2"))
//	_ = g.AddNode(diffgraph.NewVariable("v2", "1"))
//	_ = g.AddNode(diffgraph.NewOperationNode("s", sumOp))
//	_ = g.Connect("v1", "s", "x_i")
//	_ = g.Connect("v2", "s", "x_i")
//	_, _ = g.UpdateFValues()          // value(s) = 3
//	_ = g.SetTargetNode("s")
//	_, _ = g.UpdateDerivatives()      // derivative(v1) = 1
type Graph struct {
	id    string
	nodes map[string]Node
	order []string // insertion order, for deterministic iteration

	mode        DifferentiationMode
	target      string
	derivatives map[string]string

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// NewGraph creates an empty graph in Reverse mode with no target.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		id:          uuid.New().String(),
		nodes:       make(map[string]Node),
		mode:        Reverse,
		derivatives: make(map[string]string),
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = observability.EnrichLogger(g.logger, g.id)
	return g
}

// NewNodeID returns a fresh id of the form "<type>-xxxxxxxx".
func NewNodeID(t NodeType) string {
	return fmt.Sprintf("%s-%s", t, uuid.New().String()[:8])
}

// ID returns the graph instance id used in logs and traces.
func (g *Graph) ID() string { return g.id }

// AddNode takes ownership of n. The node must be new: a non-empty id not
// already in the graph, no edges, and for constants and variables a decimal
// value.
func (g *Graph) AddNode(n Node) error {
	if n == nil || n.ID() == "" {
		return &StructuralError{Op: "add_node", Err: ErrInvalidNode}
	}
	id := n.ID()
	if _, exists := g.nodes[id]; exists {
		return &StructuralError{Op: "add_node", NodeID: id, Err: ErrDuplicateNode}
	}
	if n.Relationship().HasConnections() {
		return &StructuralError{Op: "add_node", NodeID: id, Err: ErrNodeConnected}
	}
	if n.Type() != TypeOperation {
		if err := validateDecimal(n.Value()); err != nil {
			return &StructuralError{Op: "add_node", NodeID: id, Err: err}
		}
	}

	g.nodes[id] = n
	g.order = append(g.order, id)
	return nil
}

// RemoveNode detaches every edge incident to the node, on both sides, and
// then deletes it. Removing the target clears the target and the cache.
func (g *Graph) RemoveNode(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return &StructuralError{Op: "remove_node", NodeID: id, Err: ErrNodeNotFound}
	}
	rel := n.Relationship()

	for portID, inputs := range rel.InputConnections() {
		for _, src := range inputs {
			if err := g.Disconnect(src, id, portID); err != nil {
				return err
			}
		}
	}

	// A downstream node listed several times takes this node on several ports.
	for _, dst := range uniqueIDs(rel.OutputNodes()) {
		dstRel := g.nodes[dst].Relationship()
		for _, p := range dstRel.InputPorts() {
			if dstRel.HasInputNodeByPort(p.ID(), id) {
				if err := g.Disconnect(id, dst, p.ID()); err != nil {
					return err
				}
			}
		}
	}

	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	delete(g.derivatives, id)
	if g.target == id {
		g.target = ""
		g.clearDerivatives()
	}
	return nil
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given id. The node remains owned by the
// graph; mutate it only through Graph methods.
func (g *Graph) Node(id string) (Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &StructuralError{Op: "get_node", NodeID: id, Err: ErrNodeNotFound}
	}
	return n, nil
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodeType returns the variant of the node.
func (g *Graph) NodeType(id string) (NodeType, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, err
	}
	return n.Type(), nil
}

// NodeValue returns the current value of the node. It implements ValueSource.
func (g *Graph) NodeValue(id string) (string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return "", &StructuralError{Op: "get_value", NodeID: id, Err: ErrNodeNotFound}
	}
	return n.Value(), nil
}

// SetNodeValue assigns the value of a constant or variable node.
// Operation nodes fail with ErrOperationValue.
func (g *Graph) SetNodeValue(id, value string) error {
	n, ok := g.nodes[id]
	if !ok {
		return &StructuralError{Op: "set_value", NodeID: id, Err: ErrNodeNotFound}
	}
	return n.SetValue(value)
}

// NodeDerivative returns the cached derivative of the node, or "0" when the
// node was not reached by the last UpdateDerivatives.
func (g *Graph) NodeDerivative(id string) string {
	if d, ok := g.derivatives[id]; ok {
		return d
	}
	return zero
}

// Derivatives returns a copy of the derivative cache.
func (g *Graph) Derivatives() map[string]string {
	return maps.Clone(g.derivatives)
}

// DifferentiationMode returns the current mode.
func (g *Graph) DifferentiationMode() DifferentiationMode { return g.mode }

// SetDifferentiationMode changes the mode and clears the derivative cache.
func (g *Graph) SetDifferentiationMode(m DifferentiationMode) error {
	if m != Reverse && m != Forward {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	g.mode = m
	g.clearDerivatives()
	return nil
}

// TargetNode returns the target id and whether one is set.
func (g *Graph) TargetNode() (string, bool) {
	return g.target, g.target != ""
}

// SetTargetNode sets the node derivatives are taken with respect to (Forward)
// or of (Reverse). An empty id clears the target. The cache is cleared either way.
func (g *Graph) SetTargetNode(id string) error {
	if id != "" && !g.HasNode(id) {
		return &StructuralError{Op: "set_target", NodeID: id, Err: ErrNodeNotFound}
	}
	g.target = id
	g.clearDerivatives()
	return nil
}

func (g *Graph) clearDerivatives() {
	clear(g.derivatives)
}

// uniqueIDs returns ids with later duplicates removed, order preserved.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
