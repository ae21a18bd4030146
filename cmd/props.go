package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/protocol"
)

var propsCmd = &cobra.Command{
	Use:   "props <position>",
	Short: "Print the properties of the directives on an element",
	Long: `Describe the properties of every directive on the element at position,
together with their metadata and resolved dependencies. With --path, one
nested value of a single directive is expanded instead.

Examples:
  inspector props 0
  inspector props 0 --path user.address
  inspector props 0.1 --directive 0 --path ngIf`,
	Args: cobra.ExactArgs(1),
	RunE: runProps,
}

func init() {
	rootCmd.AddCommand(propsCmd)
	propsCmd.Flags().Int("directive", -1, "Directive index on the element (-1 = component)")
	propsCmd.Flags().String("path", "", "Dotted property path to expand")
}

func runProps(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetInt("directive")
	rawPath, _ := cmd.Flags().GetString("path")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()

	if path := splitPath(rawPath); len(path) > 0 || index >= 0 {
		props, err := s.NestedProperties(ctx, directivePosition(pos, index), path)
		if err != nil {
			return err
		}
		return output.Print(props)
	}

	view, err := s.ComponentView(ctx, &protocol.ComponentExplorerViewQuery{
		SelectedElement: pos,
		PropertyQuery:   protocol.AllProperties(),
	})
	if err != nil {
		return err
	}
	if len(view.Properties) == 0 {
		return fmt.Errorf("no directives at position %s; run `inspector tree` for current positions", pos)
	}
	return output.Print(view.Properties)
}
