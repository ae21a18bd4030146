package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/config"
	"github.com/mj1618/component-inspector/internal/logging"
	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "inspector",
	Short: "Inspect and profile the component tree of a live application",
	Long: `A CLI for the component inspection protocol. "inspector agent" hosts an
application and serves its component tree over a websocket; every other
command connects to an agent as a panel, runs one query, and prints the
result.`,
	SilenceUsage: true,
}

// settings is the merged configuration, available once PersistentPreRunE ran.
var settings = config.Default()

// logger is the process logger built from settings.
var logger zerolog.Logger

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("env-file", ".env", "Env file with INSPECTOR_* overrides (ignored when missing)")
	flags.String("format", "", "Output format: yaml, json")
	flags.Bool("pretty", false, "Pretty-print JSON")
	flags.String("url", "", "Agent websocket URL (default ws://127.0.0.1:4711/ws)")
	flags.String("codec", "", "Wire codec: json, cbor")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	flags.String("log-format", "", "Log format: auto, console, json")
	flags.Duration("timeout", 0, "Timeout for each request to the agent")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := flags.GetString("config")
		envFile, _ := flags.GetString("env-file")
		cfg, err := config.Load(path, envFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		settings = cfg

		logger = logging.Init(logging.Config{
			Format:    cfg.Log.Format,
			Level:     cfg.Log.Level,
			Component: "inspector",
		})

		format, err := output.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		output.OutputFormat = format
		if pretty, _ := flags.GetBool("pretty"); pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}

// applyFlags overrides cfg with every persistent flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	strs := map[string]*string{
		"format":     &cfg.Format,
		"url":        &cfg.URL,
		"codec":      &cfg.Codec,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout, _ = flags.GetDuration("timeout")
	}
}
