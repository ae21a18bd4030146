package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the router configuration as a tree",
	RunE:  runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	routes, err := s.Routes(ctx)
	if err != nil {
		return err
	}
	return output.Print(routes)
}
