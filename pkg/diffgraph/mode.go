package diffgraph

import (
	"fmt"
	"strings"
)

// DifferentiationMode selects the direction derivatives propagate from the target.
type DifferentiationMode int

const (
	// Reverse computes d(target)/d(node) for every ancestor of the target.
	Reverse DifferentiationMode = iota

	// Forward computes d(node)/d(target) for every descendant of the target.
	Forward
)

// String returns the mode name.
func (m DifferentiationMode) String() string {
	switch m {
	case Reverse:
		return "reverse"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// ParseMode parses "reverse" or "forward", case-insensitively.
func ParseMode(s string) (DifferentiationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reverse":
		return Reverse, nil
	case "forward":
		return Forward, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m DifferentiationMode) MarshalText() ([]byte, error) {
	if m != Reverse && m != Forward {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DifferentiationMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// NodeType tags the closed set of node variants.
type NodeType int

const (
	// TypeConstant holds a fixed value with zero derivative.
	TypeConstant NodeType = iota

	// TypeVariable holds a value the derivative can be taken against.
	TypeVariable

	// TypeOperation computes its value from its inputs with operation code.
	TypeOperation
)

// String returns the type name.
func (t NodeType) String() string {
	switch t {
	case TypeConstant:
		return "constant"
	case TypeVariable:
		return "variable"
	case TypeOperation:
		return "operation"
	default:
		return "unknown"
	}
}

// ParseNodeType parses a type name, case-insensitively.
func ParseNodeType(s string) (NodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant":
		return TypeConstant, nil
	case "variable":
		return TypeVariable, nil
	case "operation":
		return TypeOperation, nil
	default:
		return 0, fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	if t < TypeConstant || t > TypeOperation {
		return nil, fmt.Errorf("%w: unknown node type %d", ErrInvalidNode, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
