// Package config loads inspector settings from a YAML file, an optional
// .env file, and INSPECTOR_* environment variables, in increasing order
// of precedence. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INSPECTOR_"

// Config holds the settings shared by the agent and panel commands.
type Config struct {
	// URL is the agent websocket endpoint the panel commands dial.
	URL string `yaml:"url"`
	// Listen is the agent's HTTP listen address.
	Listen string `yaml:"listen"`
	Codec  string `yaml:"codec"`
	Format string `yaml:"format"`
	Log    Log    `yaml:"log"`

	ChunkSize      int           `yaml:"chunkSize"`
	ProfilerQueue  int           `yaml:"profilerQueue"`
	RenderInterval time.Duration `yaml:"renderInterval"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		URL:            "ws://127.0.0.1:4711/ws",
		Listen:         "127.0.0.1:4711",
		Codec:          "json",
		Format:         "yaml",
		Log:            Log{Level: "info", Format: "auto"},
		ChunkSize:      64,
		ProfilerQueue:  256,
		RenderInterval: 500 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path, the env file
// at envFile, and the process environment. An empty path skips the file;
// a missing envFile is ignored.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return strings.TrimSpace(v), true
		}
		v, ok := dotenv[EnvPrefix+key]
		return strings.TrimSpace(v), ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"URL":        &c.URL,
		"LISTEN":     &c.Listen,
		"CODEC":      &c.Codec,
		"FORMAT":     &c.Format,
		"LOG_LEVEL":  &c.Log.Level,
		"LOG_FORMAT": &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"CHUNK_SIZE":     &c.ChunkSize,
		"PROFILER_QUEUE": &c.ProfilerQueue,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s must be a valid integer: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}
	durations := map[string]*time.Duration{
		"RENDER_INTERVAL": &c.RenderInterval,
		"REQUEST_TIMEOUT": &c.RequestTimeout,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s must be a valid duration: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := protocol.CodecByName(c.Codec); err != nil {
		return err
	}
	switch c.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported format: %s (use yaml or json)", c.Format)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("url must be valid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url must use ws or wss scheme, got %q", c.URL)
	}
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunkSize must be greater than 0, got %d", c.ChunkSize)
	}
	if c.ProfilerQueue <= 0 {
		return fmt.Errorf("profilerQueue must be greater than 0, got %d", c.ProfilerQueue)
	}
	if c.RenderInterval <= 0 {
		return fmt.Errorf("renderInterval must be positive, got %s", c.RenderInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
