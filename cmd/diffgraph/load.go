package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/store"
)

// graphSource says where a graph document comes from.
type graphSource struct {
	fromStore bool
	mode      string
	target    string
	values    map[string]string
}

// addFlags registers the flags shared by commands that load a graph.
func (src *graphSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&src.mode, "mode", "", "Differentiation mode: reverse or forward (overrides document)")
	cmd.Flags().StringVar(&src.target, "target", "", "Target node id (overrides document)")
	cmd.Flags().StringToStringVar(&src.values, "set", nil, "Constant or variable values as id=value (repeatable)")
	cmd.Flags().BoolVar(&src.fromStore, "stored", false, "Treat FILE as the name of a stored graph")
}

// loadGraph restores a graph from a document file, or from the store when
// src.fromStore is set, then applies the value, mode and target overrides.
func (a *app) loadGraph(ref string, src graphSource) (*diffgraph.Graph, error) {
	var (
		g   *diffgraph.Graph
		err error
	)
	if src.fromStore {
		g, err = withStore(a, func(s store.Store) (*diffgraph.Graph, error) {
			return store.LoadGraph(s, ref, a.ops, a.graphOptions()...)
		})
	} else {
		g, err = a.loadFile(ref)
	}
	if err != nil {
		return nil, err
	}

	for _, id := range slices.Sorted(maps.Keys(src.values)) {
		if err := g.SetNodeValue(id, src.values[id]); err != nil {
			return nil, err
		}
	}
	if src.mode != "" {
		m, err := diffgraph.ParseMode(src.mode)
		if err != nil {
			return nil, err
		}
		if err := g.SetDifferentiationMode(m); err != nil {
			return nil, err
		}
	}
	if src.target != "" {
		if err := g.SetTargetNode(src.target); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (a *app) loadFile(path string) (*diffgraph.Graph, error) {
	snap, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	return diffgraph.Restore(snap, a.ops, a.graphOptions()...)
}

// readSnapshot decodes a document file, picking the format by extension.
func readSnapshot(path string) (diffgraph.GraphSnapshot, error) {
	format, err := diffgraph.FormatFromPath(path)
	if err != nil {
		return diffgraph.GraphSnapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return diffgraph.GraphSnapshot{}, fmt.Errorf("read graph: %w", err)
	}
	snap, err := diffgraph.DecodeSnapshot(data, format)
	if err != nil {
		return diffgraph.GraphSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// withStore opens the configured store for the duration of fn.
func withStore[T any](a *app, fn func(s store.Store) (T, error)) (T, error) {
	var zero T
	s, err := store.NewSQLiteStore(a.settings.StorePath)
	if err != nil {
		return zero, err
	}
	defer s.Close()
	return fn(s)
}
