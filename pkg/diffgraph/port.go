package diffgraph

// Port is a named input terminal on a node.
// Ports are values; they never change after construction.
type Port struct {
	id              string
	allowMultiEdges bool
}

// NewPort creates a port. A port with allowMultiEdges accepts any number of
// distinct input nodes; otherwise it holds at most one.
func NewPort(id string, allowMultiEdges bool) Port {
	return Port{id: id, allowMultiEdges: allowMultiEdges}
}

// ID returns the port identifier.
func (p Port) ID() string { return p.id }

// AllowMultiEdges reports whether the port accepts more than one input.
func (p Port) AllowMultiEdges() bool { return p.allowMultiEdges }
