package diffgraph

import "fmt"

// visit marks for the depth-first topological sort.
const (
	unvisited = iota
	visiting
	visited
)

// topologicalSort walks from seeds along dir and returns every node it
// reaches, each placed after all the nodes reachable from it. Seeds are
// processed in order; a node finished from an earlier seed is never
// revisited, so disjoint and overlapping chains merge into one order.
//
// For dir == inputDirection this is evaluation order: inputs before the
// nodes that consume them.
func (g *Graph) topologicalSort(seeds []string, dir direction) ([]string, error) {
	marks := make(map[string]int, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case visited:
			return nil
		case visiting:
			// Connect never admits a cycle; reaching one means the
			// relationships were edited behind the graph's back.
			return fmt.Errorf("%w: found at node %s during sort", ErrCycle, id)
		}
		marks[id] = visiting
		for _, next := range g.neighbors(id, dir) {
			if err := visit(next); err != nil {
				return err
			}
		}
		marks[id] = visited
		order = append(order, id)
		return nil
	}

	for _, seed := range seeds {
		if _, ok := g.nodes[seed]; !ok {
			return nil, &StructuralError{Op: "sort", NodeID: seed, Err: ErrNodeNotFound}
		}
		if err := visit(seed); err != nil {
			return nil, err
		}
	}
	return order, nil
}
