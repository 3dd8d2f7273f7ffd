/*
Package diffgraph is an incremental computation graph with automatic
differentiation.

A Graph holds constant, variable and operation nodes joined by edges that
always form a DAG. Values are recomputed in dependency order with
UpdateFValues, and derivatives relative to a chosen target node are computed
with UpdateDerivatives in either Reverse or Forward mode.

# Nodes

	NewConstant(id, value)      fixed value, derivative always 0
	NewVariable(id, value)      settable value, derivative 1 with respect to itself
	NewOperationNode(id, op)    value computed by an Operation from its input ports

Values are decimal numbers kept as text exactly as supplied.

# Operations

An Operation declares its input ports and carries two programs: f computes
the node value and dfdx computes the partial derivative with respect to one
input. Programs are written in the expr language and run by an Evaluator:

	sum := diffgraph.NewOperation("sum",
	    []diffgraph.Port{diffgraph.NewPort("x_i", true)},
	    "f = sum(x_i)",
	    "dfdx = has(x_i, target)",
	)

Each port is bound to the list of its inputs' values keyed by node id, and in
dfdx the name target holds the id being differentiated against. A failure in
either program surfaces as a *UserCodeError carrying the rendered program and
a stack trace.

# Edges

	g.Connect(src, dst, port)       validated: no cycles, no duplicates, single-edge ports hold one
	g.Disconnect(src, dst, port)
	g.RemoveNode(id)                detaches every incident edge first

Rejected connections return a *ConnectionError wrapping ErrCycle,
ErrInputPortFull or ErrInputNodeAlreadyConnected; missing nodes and ports
return a *StructuralError.

# Derivatives

	g.SetTargetNode("loss")
	g.SetDifferentiationMode(diffgraph.Reverse)
	ids, err := g.UpdateDerivatives()
	d := g.NodeDerivative("w")       // d(loss)/d(w), "0" if not reached
	terms, err := g.ExplainChainRule("w")

Changing the mode or the target clears the derivative cache.

# Persistence

Snapshot and Restore convert a graph to and from GraphSnapshot, which
EncodeSnapshot and DecodeSnapshot render as JSON or YAML documents.
*/
package diffgraph
