package diffgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeSnapshot is the persisted form of one node. Constants and variables
// carry Value; operation nodes carry OperationID and are recomputed after
// loading. Inputs maps each port to its connected ids in insertion order.
type NodeSnapshot struct {
	ID          string              `json:"id" yaml:"id"`
	Type        NodeType            `json:"type" yaml:"type"`
	Value       string              `json:"value,omitempty" yaml:"value,omitempty"`
	OperationID string              `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Inputs      map[string][]string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// GraphSnapshot is the persisted form of a graph. The derivative cache is
// never persisted.
type GraphSnapshot struct {
	Mode   DifferentiationMode `json:"differentiationMode" yaml:"differentiationMode"`
	Target string              `json:"targetNodeId,omitempty" yaml:"targetNodeId,omitempty"`
	Nodes  []NodeSnapshot      `json:"nodes" yaml:"nodes"`
}

// OperationResolver finds the operation an operation node refers to.
type OperationResolver interface {
	Lookup(operationID string) (*Operation, error)
}

// OperationResolverFunc adapts a function to OperationResolver.
type OperationResolverFunc func(operationID string) (*Operation, error)

// Lookup implements OperationResolver.
func (f OperationResolverFunc) Lookup(operationID string) (*Operation, error) {
	return f(operationID)
}

// SnapshotNode captures a single node.
func SnapshotNode(n Node) NodeSnapshot {
	s := NodeSnapshot{ID: n.ID(), Type: n.Type()}
	if op, ok := n.(*OperationNode); ok {
		s.OperationID = op.Operation().ID()
	} else {
		s.Value = n.Value()
	}
	inputs := n.Relationship().InputConnections()
	for port, ids := range inputs {
		if len(ids) == 0 {
			delete(inputs, port)
		}
	}
	if len(inputs) > 0 {
		s.Inputs = inputs
	}
	return s
}

// Snapshot captures the graph's nodes, edges, mode and target.
func (g *Graph) Snapshot() GraphSnapshot {
	s := GraphSnapshot{
		Mode:   g.mode,
		Target: g.target,
		Nodes:  make([]NodeSnapshot, 0, len(g.order)),
	}
	for _, id := range g.order {
		s.Nodes = append(s.Nodes, SnapshotNode(g.nodes[id]))
	}
	return s
}

// RestoreNode builds a detached node from its snapshot, without edges.
func RestoreNode(s NodeSnapshot, ops OperationResolver) (Node, error) {
	switch s.Type {
	case TypeConstant:
		return NewConstant(s.ID, s.Value), nil
	case TypeVariable:
		return NewVariable(s.ID, s.Value), nil
	case TypeOperation:
		if ops == nil {
			return nil, fmt.Errorf("%w: %s (no resolver)", ErrUnknownOperation, s.OperationID)
		}
		op, err := ops.Lookup(s.OperationID)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", s.ID, err)
		}
		return NewOperationNode(s.ID, op), nil
	default:
		return nil, &StructuralError{Op: "restore", NodeID: s.ID, Err: ErrInvalidNode}
	}
}

// Restore rebuilds a graph from a snapshot. Nodes are added first, then every
// edge is connected with full validation, so a snapshot describing a cycle
// or an overfull port is rejected. Values of operation nodes are not
// restored; call UpdateFValues.
func Restore(s GraphSnapshot, ops OperationResolver, opts ...Option) (*Graph, error) {
	g := NewGraph(append(slices.Clip(opts), WithMode(s.Mode))...)

	for _, ns := range s.Nodes {
		n, err := RestoreNode(ns, ops)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, ns := range s.Nodes {
		rel := g.nodes[ns.ID].Relationship()
		for portID := range ns.Inputs {
			if _, ok := rel.Port(portID); !ok {
				return nil, &StructuralError{Op: "restore", NodeID: ns.ID, PortID: portID, Err: ErrPortNotFound}
			}
		}
		// Declaration order keeps restores deterministic.
		for _, p := range rel.InputPorts() {
			for _, src := range ns.Inputs[p.ID()] {
				if err := g.Connect(src, ns.ID, p.ID()); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := g.SetTargetNode(s.Target); err != nil {
		return nil, err
	}
	return g, nil
}

// Format is a document encoding for snapshots.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks a format from a file extension (.json, .yaml, .yml).
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported document extension: %q", ext)
	}
}

// EncodeSnapshot renders a snapshot as a document.
func EncodeSnapshot(s GraphSnapshot, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return data, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %d", int(f))
	}
}

// DecodeSnapshot parses a document into a snapshot.
func DecodeSnapshot(data []byte, f Format) (GraphSnapshot, error) {
	var s GraphSnapshot
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &s); err != nil {
			return GraphSnapshot{}, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return GraphSnapshot{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return GraphSnapshot{}, fmt.Errorf("unknown format %d", int(f))
	}
	return s, nil
}
