package store

import (
	"fmt"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// SaveGraph snapshots g and stores it as a JSON document under name.
func SaveGraph(s Store, name string, g *diffgraph.Graph) error {
	data, err := diffgraph.EncodeSnapshot(g.Snapshot(), diffgraph.FormatJSON)
	if err != nil {
		return err
	}
	return s.Save(name, data)
}

// LoadGraph restores the graph stored under name. Operation nodes are
// resolved through ops; opts configure the new graph.
func LoadGraph(s Store, name string, ops diffgraph.OperationResolver, opts ...diffgraph.Option) (*diffgraph.Graph, error) {
	data, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	snap, err := diffgraph.DecodeSnapshot(data, diffgraph.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", name, err)
	}
	g, err := diffgraph.Restore(snap, ops, opts...)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", name, err)
	}
	return g, nil
}
