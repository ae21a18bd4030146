package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/server"
	"github.com/mj1618/component-inspector/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the inspector as tools",
	Long: `Connect to an agent and start a Model Context Protocol (MCP) server that
exposes tree, property, route, injector, highlight and profiling tools.
Logs go to stderr so stdio stays clean for the protocol.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  inspector serve
  inspector serve --transport streamable-http --port 8080
  inspector serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Duration("cache-ttl", 500*time.Millisecond, "Component tree cache TTL (0 to disable)")
	serveCmd.Flags().Duration("max-profile", time.Minute, "Longest recording the profile tool accepts")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
	maxProfile, _ := cmd.Flags().GetDuration("max-profile")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	srv := server.New(s.Panel, server.Config{
		Version:    version.Version,
		CacheTTL:   cacheTTL,
		Timeout:    settings.RequestTimeout,
		MaxProfile: maxProfile,
		Logger:     &logger,
	})
	logger.Info().Str("transport", transport).Str("agent", settings.URL).Msg("serving MCP")
	if err := srv.Serve(transport, port); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
