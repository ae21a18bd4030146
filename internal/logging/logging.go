// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls logger initialization.
type Config struct {
	Format    string    // "json", "console", or "auto"
	Level     string    // "trace", "debug", "info", "warn", "error", "disabled"
	Component string    // optional component name
	Output    io.Writer // defaults to stderr
}

var (
	mu         sync.RWMutex
	baseLogger zerolog.Logger

	isTerminalFn = func(fd uintptr) bool { return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) }
)

func init() {
	baseLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Logger = baseLogger
}

// Init configures zerolog globals and returns the base logger. Logs go to
// stderr so command output on stdout stays machine readable.
func Init(cfg Config) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	ctx := zerolog.New(selectWriter(cfg.Format, out)).With().Timestamp()
	if c := strings.TrimSpace(cfg.Component); c != "" {
		ctx = ctx.Str("component", c)
	}
	baseLogger = ctx.Logger()
	log.Logger = baseLogger
	return baseLogger
}

// Logger returns the logger built by the last Init.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := baseLogger
	return &l
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall
// back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid level %q; using %q\n", level, "info")
		return zerolog.InfoLevel
	}
}

func selectWriter(format string, out io.Writer) io.Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case "json":
		return out
	case "auto", "":
		if f, ok := out.(*os.File); ok && isTerminalFn(f.Fd()) {
			return zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
		}
		return out
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid format %q; using %q\n", format, "json")
		return out
	}
}
