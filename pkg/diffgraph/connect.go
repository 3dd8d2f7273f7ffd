package diffgraph

import (
	"context"
	"slices"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
)

// ValidateConnect checks whether the edge src → dst.port may be added,
// without changing anything.
//
// Validation checks (in order):
//  1. Both nodes exist and dst declares the port
//  2. dst's relationship accepts src on the port (no duplicate, port not full)
//  3. src is not reachable from dst along output edges (no cycle, no self-loop)
func (g *Graph) ValidateConnect(src, dst, portID string) error {
	if !g.HasNode(src) {
		return &StructuralError{Op: "connect", NodeID: src, Err: ErrNodeNotFound}
	}
	dstNode, ok := g.nodes[dst]
	if !ok {
		return &StructuralError{Op: "connect", NodeID: dst, Err: ErrNodeNotFound}
	}
	dstRel := dstNode.Relationship()
	if _, ok := dstRel.Port(portID); !ok {
		return &StructuralError{Op: "connect", NodeID: dst, PortID: portID, Err: ErrPortNotFound}
	}

	if err := dstRel.ValidateAddInputNodeByPort(portID, src); err != nil {
		return &ConnectionError{Source: src, Target: dst, Port: portID, Err: err}
	}

	if g.reachable(dst, src, outputDirection) {
		return &ConnectionError{Source: src, Target: dst, Port: portID, Err: ErrCycle}
	}
	return nil
}

// Connect adds the edge src → dst.port. Validation happens first; on any
// error the graph is unchanged.
func (g *Graph) Connect(src, dst, portID string) error {
	err := g.ValidateConnect(src, dst, portID)
	g.metrics.RecordConnection(context.Background(), connectionOutcome(err))
	if err != nil {
		observability.LogConnectionRejected(g.logger, src, dst, portID, err)
		return err
	}

	if err := g.nodes[dst].Relationship().AddInputNodeByPort(portID, src); err != nil {
		return &ConnectionError{Source: src, Target: dst, Port: portID, Err: err}
	}
	g.nodes[src].Relationship().AddOutputNode(dst)
	return nil
}

// Disconnect removes the edge src → dst.port from both sides.
// Removing an existing edge is always legal; a missing edge is a
// StructuralError and leaves the graph unchanged.
func (g *Graph) Disconnect(src, dst, portID string) error {
	srcNode, ok := g.nodes[src]
	if !ok {
		return &StructuralError{Op: "disconnect", NodeID: src, Err: ErrNodeNotFound}
	}
	dstNode, ok := g.nodes[dst]
	if !ok {
		return &StructuralError{Op: "disconnect", NodeID: dst, Err: ErrNodeNotFound}
	}

	if err := dstNode.Relationship().RemoveInputNodeByPort(portID, src); err != nil {
		return &StructuralError{Op: "disconnect", NodeID: dst, PortID: portID, Err: err}
	}
	if err := srcNode.Relationship().RemoveOutputNode(dst); err != nil {
		return &StructuralError{Op: "disconnect", NodeID: src, Err: err}
	}
	return nil
}

// direction selects which side of the relationship a traversal follows.
type direction int

const (
	inputDirection direction = iota
	outputDirection
)

// neighbors returns the distinct neighbors of id in the given direction,
// in relationship order.
func (g *Graph) neighbors(id string, dir direction) []string {
	rel := g.nodes[id].Relationship()
	if dir == inputDirection {
		return uniqueIDs(rel.InputNodes())
	}
	return uniqueIDs(rel.OutputNodes())
}

// reachable reports whether to can be reached from from by following edges
// in dir. A node reaches itself.
func (g *Graph) reachable(from, to string, dir direction) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.neighbors(current, dir) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// terminalNodes returns the nodes that feed nothing, in insertion order.
func (g *Graph) terminalNodes() []string {
	return slices.DeleteFunc(slices.Clone(g.order), func(id string) bool {
		return len(g.nodes[id].Relationship().OutputNodes()) > 0
	})
}
