package diffgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural lookups and node management.
var (
	// ErrNodeNotFound indicates an id that is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPortNotFound indicates a port id the node does not declare.
	ErrPortNotFound = errors.New("port not found")

	// ErrConnectionNotFound indicates removal of an edge that does not exist.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrDuplicateNode indicates AddNode with an id already in the graph.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrInvalidNode indicates a nil node or a node with an empty id.
	ErrInvalidNode = errors.New("invalid node")

	// ErrNodeConnected indicates AddNode with a node that already has edges.
	ErrNodeConnected = errors.New("node already has connections")

	// ErrInvalidValue indicates a value that is not a decimal number.
	ErrInvalidValue = errors.New("invalid decimal value")

	// ErrOperationValue indicates an attempt to assign an operation node's value.
	ErrOperationValue = errors.New("operation node value is computed and cannot be set")

	// ErrUnknownOperation indicates a snapshot referencing an operation id
	// the resolver does not know.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidMode indicates an unrecognised differentiation mode.
	ErrInvalidMode = errors.New("invalid differentiation mode")
)

// Sentinel errors for the connection family. ConnectionError.Err is one of these.
var (
	// ErrCycle indicates the edge would make the graph cyclic.
	ErrCycle = errors.New("connection would create a cycle")

	// ErrInputPortFull indicates a single-edge port that is already occupied.
	ErrInputPortFull = errors.New("input port is full")

	// ErrInputNodeAlreadyConnected indicates the node is already on that port.
	ErrInputNodeAlreadyConnected = errors.New("input node already connected")
)

// StructuralError reports a missing node, port or edge.
type StructuralError struct {
	// Op is the operation that failed (e.g., "connect", "remove_node").
	Op string
	// NodeID is the node the lookup was about.
	NodeID string
	// PortID is the port involved, if any.
	PortID string
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.PortID != "" {
		return fmt.Sprintf("%s: node %s port %s: %v", e.Op, e.NodeID, e.PortID, e.Err)
	}
	return fmt.Sprintf("%s: node %s: %v", e.Op, e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a rejected connect, naming both endpoints.
type ConnectionError struct {
	// Source is the node whose output would feed the edge.
	Source string
	// Target is the node whose input port would receive the edge.
	Target string
	// Port is the target's input port.
	Port string
	// Err is ErrCycle, ErrInputPortFull or ErrInputNodeAlreadyConnected,
	// possibly wrapped with relationship detail.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s -> %s.%s: %v", e.Source, e.Target, e.Port, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UserCodeError wraps a failure raised while running operation code.
// It carries the rendered program and a stack trace for diagnosis.
type UserCodeError struct {
	// OperationID identifies the operation whose code failed.
	OperationID string
	// Function is "f" or "dfdx".
	Function string
	// Code is the program as it was executed, entry call included.
	Code string
	// Stack is the stack trace captured at the failure.
	Stack string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *UserCodeError) Error() string {
	return fmt.Sprintf("operation %s: %s: %v\n--- code ---\n%s", e.OperationID, e.Function, e.Err, e.Code)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *UserCodeError) Unwrap() error {
	return e.Err
}

// connectionOutcome maps a connect result to a metric attribute value.
func connectionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrCycle):
		return "cycle"
	case errors.Is(err, ErrInputPortFull):
		return "port_full"
	case errors.Is(err, ErrInputNodeAlreadyConnected):
		return "duplicate"
	case errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrPortNotFound):
		return "not_found"
	default:
		return "other"
	}
}
