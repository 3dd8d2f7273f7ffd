package diffgraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueSource resolves the current value of a node by id.
// Graph implements it for the nodes it owns.
type ValueSource interface {
	NodeValue(id string) (string, error)
}

// Node is the closed set of graph node variants: *ConstantNode,
// *VariableNode and *OperationNode.
//
// Values are decimal numbers kept as text exactly as they were given.
type Node interface {
	// ID returns the node id, unique within its graph.
	ID() string

	// Type returns the variant tag.
	Type() NodeType

	// IsConstant reports whether the node's derivative is always zero.
	IsConstant() bool

	// Value returns the current value.
	Value() string

	// SetValue assigns the value. Operation nodes always fail.
	SetValue(value string) error

	// UpdateValue recomputes the value from the current values of the
	// connected inputs. It does not recompute the inputs themselves.
	UpdateValue(values ValueSource) error

	// CalculateDerivative returns the partial derivative of this node with
	// respect to x, evaluated at the current input values.
	CalculateDerivative(x Node, values ValueSource) (string, error)

	// Relationship returns the node's adjacency record.
	Relationship() *Relationship

	sealed()
}

const (
	zero = "0"
	one  = "1"
)

// validateDecimal checks that value is a finite decimal number.
// Hex floats, infinities and NaN are rejected.
func validateDecimal(value string) error {
	digits := strings.TrimLeft(value, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	return nil
}

// ConstantNode holds a value that derivatives treat as fixed.
type ConstantNode struct {
	id    string
	value string
	rel   *Relationship
}

// NewConstant creates a constant node.
func NewConstant(id, value string) *ConstantNode {
	return &ConstantNode{id: id, value: value, rel: NewRelationship()}
}

func (n *ConstantNode) ID() string                  { return n.id }
func (n *ConstantNode) Type() NodeType              { return TypeConstant }
func (n *ConstantNode) IsConstant() bool            { return true }
func (n *ConstantNode) Value() string               { return n.value }
func (n *ConstantNode) Relationship() *Relationship { return n.rel }
func (n *ConstantNode) sealed()                     {}

// SetValue assigns the value.
func (n *ConstantNode) SetValue(value string) error {
	if err := validateDecimal(value); err != nil {
		return err
	}
	n.value = value
	return nil
}

// UpdateValue is a no-op; a constant has no inputs.
func (n *ConstantNode) UpdateValue(ValueSource) error { return nil }

// CalculateDerivative is always "0".
func (n *ConstantNode) CalculateDerivative(Node, ValueSource) (string, error) { return zero, nil }

// VariableNode holds a value that derivatives may be taken against.
type VariableNode struct {
	id    string
	value string
	rel   *Relationship
}

// NewVariable creates a variable node.
func NewVariable(id, value string) *VariableNode {
	return &VariableNode{id: id, value: value, rel: NewRelationship()}
}

func (n *VariableNode) ID() string                  { return n.id }
func (n *VariableNode) Type() NodeType              { return TypeVariable }
func (n *VariableNode) IsConstant() bool            { return false }
func (n *VariableNode) Value() string               { return n.value }
func (n *VariableNode) Relationship() *Relationship { return n.rel }
func (n *VariableNode) sealed()                     {}

// SetValue assigns the value.
func (n *VariableNode) SetValue(value string) error {
	if err := validateDecimal(value); err != nil {
		return err
	}
	n.value = value
	return nil
}

// UpdateValue is a no-op; a variable has no inputs.
func (n *VariableNode) UpdateValue(ValueSource) error { return nil }

// CalculateDerivative is "1" with respect to itself and "0" otherwise.
func (n *VariableNode) CalculateDerivative(x Node, _ ValueSource) (string, error) {
	if x != nil && !x.IsConstant() && x.ID() == n.id {
		return one, nil
	}
	return zero, nil
}

// OperationNode computes its value by running an Operation on its inputs.
type OperationNode struct {
	id    string
	value string
	op    *Operation
	rel   *Relationship
}

// NewOperationNode creates an operation node whose input ports are the
// operation's declared ports. Its value is "0" until first updated.
func NewOperationNode(id string, op *Operation) *OperationNode {
	return &OperationNode{id: id, value: zero, op: op, rel: NewRelationship(op.Ports()...)}
}

func (n *OperationNode) ID() string                  { return n.id }
func (n *OperationNode) Type() NodeType              { return TypeOperation }
func (n *OperationNode) IsConstant() bool            { return false }
func (n *OperationNode) Value() string               { return n.value }
func (n *OperationNode) Relationship() *Relationship { return n.rel }
func (n *OperationNode) sealed()                     {}

// Operation returns the operation the node runs.
func (n *OperationNode) Operation() *Operation { return n.op }

// SetValue always fails; only UpdateValue assigns an operation node's value.
func (n *OperationNode) SetValue(string) error {
	return fmt.Errorf("%w: %s", ErrOperationValue, n.id)
}

// UpdateValue runs the operation's f code against the current input values.
// On failure the previous value is kept.
func (n *OperationNode) UpdateValue(values ValueSource) error {
	ports, vals, err := n.inputSnapshot(values)
	if err != nil {
		return err
	}
	v, err := n.op.EvalF(ports, vals)
	if err != nil {
		return err
	}
	n.value = v
	return nil
}

// CalculateDerivative returns "0" for constant x, "1" for x itself, and
// otherwise runs the operation's dfdx code with respect to x.
func (n *OperationNode) CalculateDerivative(x Node, values ValueSource) (string, error) {
	if x == nil || x.IsConstant() {
		return zero, nil
	}
	if x.ID() == n.id {
		return one, nil
	}
	ports, vals, err := n.inputSnapshot(values)
	if err != nil {
		return "", err
	}
	return n.op.EvalDfdx(ports, vals, x.ID())
}

// inputSnapshot copies the port → ids mapping and the current value of
// every connected input.
func (n *OperationNode) inputSnapshot(values ValueSource) (map[string][]string, map[string]string, error) {
	ports := n.rel.InputConnections()
	vals := make(map[string]string)
	for _, ids := range ports {
		for _, id := range ids {
			if _, seen := vals[id]; seen {
				continue
			}
			v, err := values.NodeValue(id)
			if err != nil {
				return nil, nil, err
			}
			vals[id] = v
		}
	}
	return ports, vals, nil
}

// Compile-time interface checks.
var (
	_ Node = (*ConstantNode)(nil)
	_ Node = (*VariableNode)(nil)
	_ Node = (*OperationNode)(nil)
)
