package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/tree"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Stdout is where results are written.
var Stdout io.Writer = os.Stdout

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported output format: %s (use yaml or json)", s)
}

// TreeResult is the top-level output of the `tree` command.
type TreeResult struct {
	Version    string                  `yaml:"version,omitempty" json:"version,omitempty"`
	Generation uint64                  `yaml:"generation"        json:"generation"`
	TS         int64                   `yaml:"ts"                json:"ts"`
	Forest     []protocol.DevToolsNode `yaml:"forest"            json:"forest"`
}

// FlatResult is the top-level output when --flat is used.
type FlatResult struct {
	Version    string          `yaml:"version,omitempty" json:"version,omitempty"`
	Generation uint64          `yaml:"generation"        json:"generation"`
	TS         int64           `yaml:"ts"                json:"ts"`
	Nodes      []tree.FlatNode `yaml:"nodes"             json:"nodes"`
}

// Print serializes v to Stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return PrintJSON(v, PrettyOutput)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}
