package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/store"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage graphs kept in the SQLite store",
	}
	cmd.AddCommand(
		newStorePutCmd(a),
		newStoreGetCmd(a),
		newStoreListCmd(a),
		newStoreRmCmd(a),
	)
	return cmd
}

func newStorePutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Validate a graph document and store it under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			g, err := a.loadFile(path)
			if err != nil {
				return err
			}
			_, err = withStore(a, func(s store.Store) (struct{}, error) {
				return struct{}{}, store.SaveGraph(s, name, g)
			})
			if err != nil {
				return err
			}
			a.logger.Info("graph stored", "name", name, "nodes", len(g.Nodes()))
			fmt.Fprintf(a.out, "stored %s (%d nodes)\n", name, len(g.Nodes()))
			return nil
		},
	}
}

func newStoreGetCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a stored graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			g, err := withStore(a, func(s store.Store) (*diffgraph.Graph, error) {
				return store.LoadGraph(s, args[0], a.ops, a.graphOptions()...)
			})
			if err != nil {
				return err
			}
			data, err := diffgraph.EncodeSnapshot(g.Snapshot(), f)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			if err == nil && f == diffgraph.FormatJSON {
				_, err = fmt.Fprintln(a.out)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func newStoreListCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := withStore(a, func(s store.Store) ([]store.Info, error) {
				return s.List()
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(a.out, "no stored graphs")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "REVISION", "SIZE", "UPDATED")
			for _, info := range infos {
				t.Row(info.Name, strconv.Itoa(info.Revision), strconv.FormatInt(info.Size, 10),
					info.Timestamp.Local().Format(time.DateTime))
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStoreRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := withStore(a, func(s store.Store) (struct{}, error) {
				return struct{}{}, s.Delete(args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %s\n", args[0])
			return nil
		},
	}
}

func parseFormat(s string) (diffgraph.Format, error) {
	switch s {
	case "json":
		return diffgraph.FormatJSON, nil
	case "yaml", "yml":
		return diffgraph.FormatYAML, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want yaml or json)", s)
	}
}
