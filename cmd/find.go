package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/tree"
)

var findCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find elements by element, component or directive name",
	Long: `Search the component tree for elements whose tag, component or directive
names contain the given text (case-insensitive). Matches are printed as
flat nodes with their positions.

Examples:
  inspector find todo
  inspector find NgIf --first`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Bool("first", false, "Print only the first match")
}

func runFind(cmd *cobra.Command, args []string) error {
	first, _ := cmd.Flags().GetBool("first")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	view, err := s.ComponentView(ctx, nil)
	if err != nil {
		return err
	}
	matches := tree.FindByName(view.Forest, args[0])
	if len(matches) == 0 {
		return fmt.Errorf("no element matches %q", args[0])
	}
	if first {
		return output.Print(matches[0])
	}
	return output.Print(matches)
}
