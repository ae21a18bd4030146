package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [position]",
	Short: "Draw the highlight overlay over an element",
	Long: `Draw the highlight overlay over the element at position, or over the
element carrying a component id with --id. --clear removes the overlay.
The agent serves the overlay surface at /overlay.png.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHighlight,
}

var selectCmd = &cobra.Command{
	Use:   "select [position]",
	Short: "Select an element in the application",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelect,
}

func init() {
	rootCmd.AddCommand(highlightCmd)
	highlightCmd.Flags().Int("id", -1, "Component or directive id")
	highlightCmd.Flags().Bool("clear", false, "Remove the overlay")

	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().Int("id", -1, "Component or directive id")
}

// actionResult is printed by commands that only send a command.
type actionResult struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
}

func runHighlight(cmd *cobra.Command, args []string) error {
	remove, _ := cmd.Flags().GetBool("clear")
	if remove {
		return runAction(cmd, "unhighlight", "", func(ctx context.Context, s *session) error {
			if err := s.Unhighlight(ctx); err != nil {
				return err
			}
			return s.RemoveComponentHighlight(ctx)
		})
	}
	return byPositionOrID(cmd, args, "highlight",
		func(ctx context.Context, s *session, id int) error { return s.HighlightComponent(ctx, id) },
		func(ctx context.Context, s *session, pos string) error {
			p, err := parsePosition(pos)
			if err != nil {
				return err
			}
			return s.Highlight(ctx, p)
		})
}

func runSelect(cmd *cobra.Command, args []string) error {
	return byPositionOrID(cmd, args, "select",
		func(ctx context.Context, s *session, id int) error { return s.SelectComponent(ctx, id) },
		func(ctx context.Context, s *session, pos string) error {
			p, err := parsePosition(pos)
			if err != nil {
				return err
			}
			return s.SelectElement(ctx, p)
		})
}

func byPositionOrID(cmd *cobra.Command, args []string, action string,
	byID func(context.Context, *session, int) error,
	byPos func(context.Context, *session, string) error,
) error {
	id, _ := cmd.Flags().GetInt("id")
	switch {
	case id >= 0 && len(args) > 0:
		return fmt.Errorf("pass either a position or --id, not both")
	case id >= 0:
		return runAction(cmd, action, fmt.Sprintf("#%d", id), func(ctx context.Context, s *session) error {
			return byID(ctx, s, id)
		})
	case len(args) == 1:
		return runAction(cmd, action, args[0], func(ctx context.Context, s *session) error {
			return byPos(ctx, s, args[0])
		})
	default:
		return fmt.Errorf("a position or --id is required")
	}
}

// runAction connects, runs fn, and confirms delivery with a round trip:
// commands have no reply, and the agent handles messages in order.
func runAction(cmd *cobra.Command, action, target string, fn func(context.Context, *session) error) error {
	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	if err := fn(ctx, s); err != nil {
		return err
	}
	if _, err := s.Availability(ctx); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: action, Target: target})
}
