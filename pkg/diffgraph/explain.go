package diffgraph

// ChainRuleTerm is one summand of a node's chain-rule derivative.
type ChainRuleTerm struct {
	// NeighborID is the output (Reverse) or input (Forward) neighbor.
	NeighborID string `json:"neighborId" yaml:"neighborId"`
	// DerivativeRegardingTarget is the neighbor's cached derivative:
	// d(target)/d(neighbor) in Reverse, d(neighbor)/d(target) in Forward.
	DerivativeRegardingTarget string `json:"derivativeRegardingTarget" yaml:"derivativeRegardingTarget"`
	// DerivativeRegardingCurrent is the local derivative between the node
	// and the neighbor: d(neighbor)/d(node) in Reverse, d(node)/d(neighbor)
	// in Forward.
	DerivativeRegardingCurrent string `json:"derivativeRegardingCurrent" yaml:"derivativeRegardingCurrent"`
}

// ExplainChainRule lists the terms that make up the node's derivative, for
// "show your work" rendering. It reads the cache filled by the last
// UpdateDerivatives (missing entries read as "0") and recomputes each local
// derivative. It never modifies the graph.
func (g *Graph) ExplainChainRule(id string) ([]ChainRuleTerm, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &StructuralError{Op: "explain", NodeID: id, Err: ErrNodeNotFound}
	}

	dir := outputDirection
	if g.mode == Forward {
		dir = inputDirection
	}

	neighbors := g.neighbors(id, dir)
	terms := make([]ChainRuleTerm, 0, len(neighbors))
	for _, nb := range neighbors {
		var local string
		var err error
		if g.mode == Reverse {
			local, err = g.nodes[nb].CalculateDerivative(n, g)
		} else {
			local, err = n.CalculateDerivative(g.nodes[nb], g)
		}
		if err != nil {
			return nil, err
		}
		terms = append(terms, ChainRuleTerm{
			NeighborID:                 nb,
			DerivativeRegardingTarget:  g.NodeDerivative(nb),
			DerivativeRegardingCurrent: local,
		})
	}
	return terms, nil
}
