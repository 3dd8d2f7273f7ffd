package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

func newExplainCmd(a *app) *cobra.Command {
	var (
		src     graphSource
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "explain FILE NODE",
		Short: "Show the chain-rule terms behind a node's derivative",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0], src)
			if err != nil {
				return err
			}
			if _, ok := g.TargetNode(); !ok {
				return fmt.Errorf("graph has no target node; set one with --target")
			}
			if _, err := evaluate(g); err != nil {
				return err
			}

			id := args[1]
			terms, err := g.ExplainChainRule(id)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.out, terms)
			}
			renderTerms(a, g, id, terms)
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output terms as JSON")
	return cmd
}

func renderTerms(a *app, g *diffgraph.Graph, id string, terms []diffgraph.ChainRuleTerm) {
	target, _ := g.TargetNode()
	global, local := "d(target)/d(neighbor)", "d(neighbor)/d(node)"
	if g.DifferentiationMode() == diffgraph.Forward {
		global, local = "d(neighbor)/d(target)", "d(node)/d(neighbor)"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NEIGHBOR", global, local)
	for _, term := range terms {
		t.Row(term.NeighborID, term.DerivativeRegardingTarget, term.DerivativeRegardingCurrent)
	}
	fmt.Fprintln(a.out, t.Render())
	fmt.Fprintf(a.out, "derivative of %s (%s, target %s) = %s\n",
		id, g.DifferentiationMode(), target, g.NodeDerivative(id))
}
