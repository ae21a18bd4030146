package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/server"
)

var setValueCmd = &cobra.Command{
	Use:   "set-value <position> <key.path> <value>",
	Short: "Assign a property on a component or directive",
	Long: `Assign value to the property at key.path on the component (or, with
--directive, the directive) of the element at position. The value is
parsed as JSON when it is valid JSON and used as a string otherwise; pass
--string to always use it verbatim.

Examples:
  inspector set-value 0 title "Groceries"
  inspector set-value 0 user.age 37
  inspector set-value 0.1 ngIf false --directive 0`,
	Args: cobra.ExactArgs(3),
	RunE: runSetValue,
}

func init() {
	rootCmd.AddCommand(setValueCmd)
	setValueCmd.Flags().Int("directive", -1, "Directive index on the element (-1 = component)")
	setValueCmd.Flags().Bool("string", false, "Treat the value as a plain string")
}

func runSetValue(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	keyPath := splitPath(args[1])
	if len(keyPath) == 0 {
		return fmt.Errorf("key path must not be empty")
	}
	index, _ := cmd.Flags().GetInt("directive")
	asString, _ := cmd.Flags().GetBool("string")

	var value any = args[2]
	if !asString {
		value = server.ParseValue(args[2])
	}
	data := protocol.UpdatedStateData{
		DirectiveID: directivePosition(pos, index),
		KeyPath:     keyPath,
		NewValue:    value,
	}
	return runAction(cmd, "set-value", args[0]+" "+args[1], func(ctx context.Context, s *session) error {
		return s.UpdateState(ctx, data)
	})
}
