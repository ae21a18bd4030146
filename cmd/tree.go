package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the component tree",
	Long: `Print the component forest of the application served by the agent.

Each element lists its component and directives with their ids. Positions
(dotted child indexes such as 0.1.2) address elements in the props,
highlight and set-value commands; they are only valid until the tree
changes.`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("flat", false, "Flatten the tree into a list with positions and breadcrumb paths")
	treeCmd.Flags().Bool("text", false, "Print an indented outline instead of yaml/json")
	treeCmd.Flags().String("filter", "", "Keep only branches whose element, component or directive names contain this text")
}

func runTree(cmd *cobra.Command, args []string) error {
	flat, _ := cmd.Flags().GetBool("flat")
	text, _ := cmd.Flags().GetBool("text")
	filter, _ := cmd.Flags().GetString("filter")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	avail, err := s.Availability(ctx)
	if err != nil {
		return err
	}
	view, err := s.ComponentView(ctx, nil)
	if err != nil {
		return err
	}
	version, _ := avail.Version.(string)
	forest := view.Forest
	if filter != "" {
		forest = tree.FilterByName(forest, filter)
	}
	if forest == nil {
		forest = []protocol.DevToolsNode{}
	}

	switch {
	case text:
		return output.PrintText(forest)
	case flat:
		nodes := tree.FlattenForest(forest)
		if nodes == nil {
			nodes = []tree.FlatNode{}
		}
		return output.Print(output.FlatResult{
			Version:    version,
			Generation: s.Generation(),
			TS:         time.Now().Unix(),
			Nodes:      nodes,
		})
	default:
		return output.Print(output.TreeResult{
			Version:    version,
			Generation: s.Generation(),
			TS:         time.Now().Unix(),
			Forest:     forest,
		})
	}
}
