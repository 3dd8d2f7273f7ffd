package oplib

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// PortDefinition is the document form of a diffgraph.Port.
type PortDefinition struct {
	ID    string `json:"id" yaml:"id"`
	Multi bool   `json:"multi,omitempty" yaml:"multi,omitempty"`
}

// Definition is the document form of an operation.
type Definition struct {
	ID    string           `json:"id" yaml:"id"`
	Ports []PortDefinition `json:"ports" yaml:"ports"`
	F     string           `json:"f" yaml:"f"`
	Dfdx  string           `json:"dfdx" yaml:"dfdx"`
}

// Operation builds the operation described by d.
func (d Definition) Operation(opts ...diffgraph.OperationOption) (*diffgraph.Operation, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("oplib: operation definition without id")
	}
	ports := make([]diffgraph.Port, 0, len(d.Ports))
	seen := make(map[string]bool, len(d.Ports))
	for _, p := range d.Ports {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("oplib: operation %s: invalid or repeated port %q", d.ID, p.ID)
		}
		seen[p.ID] = true
		ports = append(ports, diffgraph.NewPort(p.ID, p.Multi))
	}
	return diffgraph.NewOperation(d.ID, ports, d.F, d.Dfdx, opts...), nil
}

// Describe returns the definition of op.
func Describe(op *diffgraph.Operation) Definition {
	d := Definition{ID: op.ID(), F: op.FCode(), Dfdx: op.DfdxCode()}
	for _, p := range op.Ports() {
		d.Ports = append(d.Ports, PortDefinition{ID: p.ID(), Multi: p.AllowMultiEdges()})
	}
	return d
}

// DecodeDefinitions parses a list of definitions from a JSON or YAML document.
func DecodeDefinitions(data []byte, f diffgraph.Format) ([]Definition, error) {
	var defs []Definition
	switch f {
	case diffgraph.FormatJSON:
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case diffgraph.FormatYAML:
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %d", int(f))
	}
	return defs, nil
}

// RegisterDefinitions builds and registers every definition. Nothing is
// registered if any definition is invalid.
func (l *Library) RegisterDefinitions(defs []Definition, opts ...diffgraph.OperationOption) error {
	ops := make([]*diffgraph.Operation, 0, len(defs))
	for _, d := range defs {
		op, err := d.Operation(opts...)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	for _, op := range ops {
		if err := l.Register(op); err != nil {
			return err
		}
	}
	return nil
}
