package diffgraph

import (
	"fmt"
	"slices"
)

// Relationship is a node's adjacency record: the node ids connected to each
// input port, and the node ids this node feeds.
//
// The input side is authoritative for logical edges. A port that disallows
// multiple edges holds at most one id, and no id appears twice under the same
// port. The output side is not deduplicated: a downstream node that receives
// this node on several of its ports is listed once per port.
//
// Relationship is not safe for concurrent use.
type Relationship struct {
	inputPorts        []Port
	inputConnections  map[string][]string
	outputConnections []string
}

// NewRelationship creates an empty relationship declaring the given input ports.
// Later duplicates of a port id are ignored.
func NewRelationship(ports ...Port) *Relationship {
	r := &Relationship{
		inputConnections: make(map[string][]string, len(ports)),
	}
	for _, p := range ports {
		if _, exists := r.inputConnections[p.ID()]; exists {
			continue
		}
		r.inputPorts = append(r.inputPorts, p)
		r.inputConnections[p.ID()] = nil
	}
	return r
}

// InputPorts returns the declared input ports in declaration order.
func (r *Relationship) InputPorts() []Port {
	return slices.Clone(r.inputPorts)
}

// Port returns the declared port with the given id.
func (r *Relationship) Port(portID string) (Port, bool) {
	for _, p := range r.inputPorts {
		if p.ID() == portID {
			return p, true
		}
	}
	return Port{}, false
}

// InputNodesByPort returns the ids connected to a port, in insertion order.
func (r *Relationship) InputNodesByPort(portID string) ([]string, error) {
	ids, ok := r.inputConnections[portID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPortNotFound, portID)
	}
	return slices.Clone(ids), nil
}

// InputConnections returns a copy of the port → ids mapping.
// Every declared port is present, with an empty slice when unconnected.
func (r *Relationship) InputConnections() map[string][]string {
	out := make(map[string][]string, len(r.inputConnections))
	for _, p := range r.inputPorts {
		ids := r.inputConnections[p.ID()]
		out[p.ID()] = append(make([]string, 0, len(ids)), ids...)
	}
	return out
}

// InputNodes returns every input id, port by port in declaration order.
// An id connected on several ports appears once per port.
func (r *Relationship) InputNodes() []string {
	var out []string
	for _, p := range r.inputPorts {
		out = append(out, r.inputConnections[p.ID()]...)
	}
	return out
}

// OutputNodes returns the ids this node feeds, in insertion order.
func (r *Relationship) OutputNodes() []string {
	return slices.Clone(r.outputConnections)
}

// HasInputNodeByPort reports whether nodeID is connected on portID.
func (r *Relationship) HasInputNodeByPort(portID, nodeID string) bool {
	return slices.Contains(r.inputConnections[portID], nodeID)
}

// HasConnections reports whether any input or output edge exists.
func (r *Relationship) HasConnections() bool {
	if len(r.outputConnections) > 0 {
		return true
	}
	for _, ids := range r.inputConnections {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

// ValidateAddInputNodeByPort checks whether nodeID may be added to portID.
// It fails with ErrInputNodeAlreadyConnected if nodeID already occupies the
// port, and with ErrInputPortFull if the port takes a single edge and has one.
func (r *Relationship) ValidateAddInputNodeByPort(portID, nodeID string) error {
	port, ok := r.Port(portID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPortNotFound, portID)
	}
	ids := r.inputConnections[portID]
	if slices.Contains(ids, nodeID) {
		return fmt.Errorf("%w: %s already on port %s", ErrInputNodeAlreadyConnected, nodeID, portID)
	}
	if !port.AllowMultiEdges() && len(ids) > 0 {
		return fmt.Errorf("%w: port %s already holds %s", ErrInputPortFull, portID, ids[0])
	}
	return nil
}

// AddInputNodeByPort validates, then appends nodeID to the port.
func (r *Relationship) AddInputNodeByPort(portID, nodeID string) error {
	if err := r.ValidateAddInputNodeByPort(portID, nodeID); err != nil {
		return err
	}
	r.inputConnections[portID] = append(r.inputConnections[portID], nodeID)
	return nil
}

// RemoveInputNodeByPort removes nodeID from the port.
func (r *Relationship) RemoveInputNodeByPort(portID, nodeID string) error {
	ids, ok := r.inputConnections[portID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPortNotFound, portID)
	}
	i := slices.Index(ids, nodeID)
	if i < 0 {
		return fmt.Errorf("%w: %s is not on port %s", ErrConnectionNotFound, nodeID, portID)
	}
	r.inputConnections[portID] = slices.Delete(ids, i, i+1)
	return nil
}

// AddOutputNode appends nodeID to the output list without a uniqueness check.
func (r *Relationship) AddOutputNode(nodeID string) {
	r.outputConnections = append(r.outputConnections, nodeID)
}

// RemoveOutputNode removes the first occurrence of nodeID from the output list.
func (r *Relationship) RemoveOutputNode(nodeID string) error {
	i := slices.Index(r.outputConnections, nodeID)
	if i < 0 {
		return fmt.Errorf("%w: %s is not an output", ErrConnectionNotFound, nodeID)
	}
	r.outputConnections = slices.Delete(r.outputConnections, i, i+1)
	return nil
}
