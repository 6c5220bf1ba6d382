// Package config holds the settings shared by the pcbkit command and the
// report builder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/pcbkit/parser"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds configuration for parsing boards and building reports.
type Config struct {
	// --- Parsing ---

	// LayersSection is the board block that declares layers.
	// Default: "layers"
	LayersSection string `json:"layers_section" yaml:"layers_section" toml:"layers_section"`

	// StackupSentinels are the keywords that start a new stackup record.
	// Default: ["layer"]
	StackupSentinels []string `json:"stackup_sentinels" yaml:"stackup_sentinels" toml:"stackup_sentinels"`

	// StackupIndent is the fixed prefix stripped from every stackup line.
	StackupIndent string `json:"stackup_indent" yaml:"stackup_indent" toml:"stackup_indent"`

	// --- Report ---

	// RenderLayers lists the layers worth rendering, in report order.
	// Layers absent from the board are skipped.
	RenderLayers []string `json:"render_layers" yaml:"render_layers" toml:"render_layers"`

	// Workers bounds how many projects are built at once.
	// Default: 4
	Workers int `json:"workers" yaml:"workers" toml:"workers"`

	// Format is the output encoding. Values: "json", "yaml"
	Format string `json:"format" yaml:"format" toml:"format"`

	// WatchDebounce coalesces bursts of file events in watch mode.
	WatchDebounce time.Duration `json:"watch_debounce" yaml:"watch_debounce" toml:"watch_debounce"`

	// --- Logging ---

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// DefaultRenderLayers returns the layers a PCB report renders by default:
// the outer copper, every possible inner copper layer, then silkscreen,
// mask, outline and comments.
func DefaultRenderLayers() []string {
	layers := make([]string, 0, 107)
	layers = append(layers, "F.Cu")
	for i := 0; i < 99; i++ {
		layers = append(layers, fmt.Sprintf("In%d.Cu", i))
	}
	return append(layers,
		"B.Cu",
		"B.SilkS",
		"F.SilkS",
		"B.Mask",
		"F.Mask",
		"Edge.Cuts",
		"Cmts.User",
	)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LayersSection:    parser.DefaultLayersSection,
		StackupSentinels: []string{parser.DefaultSentinel},
		RenderLayers:     DefaultRenderLayers(),
		Workers:          4,
		Format:           FormatJSON,
		WatchDebounce:    200 * time.Millisecond,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads a TOML or YAML file over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFile decodes the file into c. The format follows the extension:
// .toml, or .yaml/.yml. Fields absent from the file keep their value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return nil
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the PCBKIT_ prefix and take precedence over
// existing values.
//
// Supported variables:
//   - PCBKIT_LAYERS_SECTION: Layers block name
//   - PCBKIT_STACKUP_SENTINELS: Comma-separated sentinel keywords
//   - PCBKIT_STACKUP_INDENT: Prefix stripped from stackup lines
//   - PCBKIT_WORKERS: Concurrent project builds
//   - PCBKIT_FORMAT: Output format
//   - PCBKIT_WATCH_DEBOUNCE: Debounce duration (e.g., "500ms")
//   - PCBKIT_LOG_LEVEL: Log level
//   - PCBKIT_LOG_FORMAT: Log format
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("PCBKIT_LAYERS_SECTION"); v != "" {
		c.LayersSection = v
	}
	if v := os.Getenv("PCBKIT_STACKUP_SENTINELS"); v != "" {
		var sentinels []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sentinels = append(sentinels, s)
			}
		}
		if len(sentinels) > 0 {
			c.StackupSentinels = sentinels
		}
	}
	if v, ok := os.LookupEnv("PCBKIT_STACKUP_INDENT"); ok {
		c.StackupIndent = v
	}
	if v := os.Getenv("PCBKIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("PCBKIT_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("PCBKIT_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.WatchDebounce = d
		}
	}
	if v := os.Getenv("PCBKIT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PCBKIT_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// FromEnv creates a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.LoadFromEnv()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.LayersSection == "" {
		return fmt.Errorf("layers_section is required")
	}
	if len(c.StackupSentinels) == 0 {
		return fmt.Errorf("stackup_sentinels must name at least one keyword")
	}
	for _, s := range c.StackupSentinels {
		if s == "" || strings.ContainsAny(s, " \t\"") {
			return fmt.Errorf("stackup sentinel %q must be a single bare token", s)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.Format != FormatJSON && c.Format != FormatYAML {
		return fmt.Errorf("format must be %q or %q, got %q", FormatJSON, FormatYAML, c.Format)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be >= 0, got %v", c.WatchDebounce)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// WithFormat returns a copy of the config with the specified output format.
func (c Config) WithFormat(format string) Config {
	c.Format = format
	return c
}

// WithWorkers returns a copy of the config with the specified worker count.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithRenderLayers returns a copy of the config with the specified render list.
func (c Config) WithRenderLayers(layers []string) Config {
	c.RenderLayers = append([]string(nil), layers...)
	return c
}

// ParserOptions translates the parsing settings into parser options.
func (c Config) ParserOptions() []parser.Option {
	return []parser.Option{
		parser.WithLayersSection(c.LayersSection),
		parser.WithSentinels(c.StackupSentinels...),
		parser.WithStackupIndent(c.StackupIndent),
	}
}
