package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/protocol"
)

var providersCmd = &cobra.Command{
	Use:   "providers <injector-id>",
	Short: "List the providers configured on an injector",
	Long: `List the providers configured on an injector. Injector ids appear in the
resolutionPath of each dependency printed by "inspector props".`,
	Args: cobra.ExactArgs(1),
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	providers, err := s.InjectorProviders(ctx, protocol.SerializedInjector{ID: args[0]})
	if err != nil {
		return err
	}
	return output.Print(providers)
}
