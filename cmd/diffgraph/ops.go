package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph/oplib"
)

func newOpsCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := make([]oplib.Definition, 0, a.ops.Len())
			for _, id := range a.ops.IDs() {
				op, _ := a.ops.Get(id)
				defs = append(defs, oplib.Describe(op))
			}
			if jsonOut {
				return writeJSON(a.out, defs)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "PORTS", "F")
			for _, d := range defs {
				t.Row(d.ID, portList(d.Ports), oneLine(d.F))
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output definitions as JSON")
	return cmd
}

func portList(ports []oplib.PortDefinition) string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.Multi {
			names = append(names, p.ID+"*")
			continue
		}
		names = append(names, p.ID)
	}
	return strings.Join(names, ", ")
}

func oneLine(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "\n", "; ")
}
