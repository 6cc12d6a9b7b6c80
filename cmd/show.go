package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kaelemc/clabedit/document"
	"github.com/kaelemc/clabedit/topology"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <lab.clab.yml>",
		Short: "Print a summary of a topology file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := labArg(args)
			if err != nil {
				return err
			}
			snap, name, err := document.New(path).Load()
			if err != nil {
				return err
			}
			printSummary(cmd, name, snap)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, name string, snap topology.Snapshot) {
	out := cmd.OutOrStdout()
	good.Fprintf(out, "%s\n", name)

	nodes := make([]topology.Node, 0, len(snap.Nodes))
	groups := 0
	annotations := 0
	for _, n := range snap.Nodes {
		switch {
		case n.Role == topology.RoleNode:
			nodes = append(nodes, n)
		case n.IsGroupRole():
			groups++
		case n.IsAnnotation():
			annotations++
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		fmt.Fprintf(out, "  %-16s %s", n.ID, n.Data.Kind)
		if n.Parent != "" {
			subtle.Fprintf(out, "  (in %s)", n.Parent)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d nodes, %d links", len(nodes), len(snap.Edges))
	if groups > 0 {
		fmt.Fprintf(out, ", %d groups", groups)
	}
	if annotations > 0 {
		fmt.Fprintf(out, ", %d annotations", annotations)
	}
	fmt.Fprintln(out)

	orphans := 0
	for _, e := range snap.Edges {
		if e.SourceEndpoint == "" || e.TargetEndpoint == "" {
			orphans++
		}
	}
	if orphans > 0 {
		warn.Fprintf(out, "warning: %d links missing endpoint names\n", orphans)
	}
}
