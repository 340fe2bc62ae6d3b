// Package config loads slidepdf run settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInputTooLarge   = errors.New("config input exceeds maximum size")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
var MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048 // Browser limit
	MaxPatternLength  = 512
	MaxSelectorLength = 256
	MaxArgLength      = 256
	MaxArgs           = 32
)

// Environment overrides applied by ApplyEnv.
const (
	EnvDebug      = "SLIDEPDF_DEBUG"
	EnvBrowserBin = "SLIDEPDF_BROWSER_BIN"
)

// configDirName is the directory under the user config dir.
const configDirName = "go-slidepdf"

// Config holds every setting of a render run.
type Config struct {
	Page     PageConfig     `yaml:"page" toml:"page"`
	Engine   EngineConfig   `yaml:"engine" toml:"engine"`
	Content  ContentConfig  `yaml:"content" toml:"content"`
	Timeouts TimeoutsConfig `yaml:"timeouts" toml:"timeouts"`
	Run      RunConfig      `yaml:"run" toml:"run"`
}

// PageConfig defines exported page geometry, in CSS pixels.
type PageConfig struct {
	Format string `yaml:"format" toml:"format"` // "auto" or "fixed-page-size" (default: "auto")
	Width  int    `yaml:"width" toml:"width"`   // default: 390
	Height int    `yaml:"height" toml:"height"` // default: 844
	Margin int    `yaml:"margin" toml:"margin"`
}

// EngineConfig defines how the browser is found and started.
type EngineConfig struct {
	Backend string   `yaml:"backend" toml:"backend"` // "rod" or "chromedp" (default: "rod")
	Path    string   `yaml:"path" toml:"path"`       // Empty = resolve automatically
	Args    []string `yaml:"args" toml:"args"`
	Install bool     `yaml:"install" toml:"install"` // Download a browser as last resort
}

// ContentConfig defines where target content is loaded from.
// A BaseURL selects the dev server; otherwise sources are local HTML files.
type ContentConfig struct {
	BaseURL       string `yaml:"baseURL" toml:"baseURL"`
	Pattern       string `yaml:"pattern" toml:"pattern"`
	Dir           string `yaml:"dir" toml:"dir"`
	ReadySelector string `yaml:"readySelector" toml:"readySelector"`
}

// TimeoutsConfig holds wait budgets as Go duration strings ("60s", "500ms").
type TimeoutsConfig struct {
	Navigation         Duration `yaml:"navigation" toml:"navigation"`
	Ready              Duration `yaml:"ready" toml:"ready"`
	ScrollSettle       Duration `yaml:"scrollSettle" toml:"scrollSettle"`
	ScrollReturnSettle Duration `yaml:"scrollReturnSettle" toml:"scrollReturnSettle"`
}

// RunConfig defines per-run behavior.
type RunConfig struct {
	Concurrency int    `yaml:"concurrency" toml:"concurrency"` // 0 = one page at a time
	Debug       bool   `yaml:"debug" toml:"debug"`             // Keep temp files
	WorkDir     string `yaml:"workDir" toml:"workDir"`         // Empty = OS temp dir
	Output      string `yaml:"output" toml:"output"`           // Default output file
}

// Duration is a time.Duration read from a duration string.
type Duration time.Duration

// UnmarshalText parses s with time.ParseDuration. Empty means zero.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidValue, s)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d like time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a configuration where every value means "use the
// library default".
func DefaultConfig() *Config {
	return &Config{
		Page:   PageConfig{Format: "auto"},
		Engine: EngineConfig{Backend: "rod"},
	}
}

// Validate checks value ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Page.Format)) {
	case "", "auto", "fixed", "fixed-page-size":
	default:
		return fmt.Errorf("%w: page.format %q (must be auto or fixed-page-size)", ErrInvalidValue, c.Page.Format)
	}
	if err := validateNonNegative("page.width", c.Page.Width); err != nil {
		return err
	}
	if err := validateNonNegative("page.height", c.Page.Height); err != nil {
		return err
	}
	if err := validateNonNegative("page.margin", c.Page.Margin); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Engine.Backend)) {
	case "", "rod", "chromedp":
	default:
		return fmt.Errorf("%w: engine.backend %q (must be rod or chromedp)", ErrInvalidValue, c.Engine.Backend)
	}
	if err := validateFieldLength("engine.path", c.Engine.Path, MaxPathLength); err != nil {
		return err
	}
	if len(c.Engine.Args) > MaxArgs {
		return fmt.Errorf("%w: engine.args (%d entries, max %d)", ErrFieldTooLong, len(c.Engine.Args), MaxArgs)
	}
	for i, a := range c.Engine.Args {
		if err := validateFieldLength(fmt.Sprintf("engine.args[%d]", i), a, MaxArgLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("content.baseURL", c.Content.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if c.Content.BaseURL != "" {
		u, err := url.Parse(c.Content.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: content.baseURL %q must be an absolute URL", ErrInvalidValue, c.Content.BaseURL)
		}
	}
	if err := validateFieldLength("content.pattern", c.Content.Pattern, MaxPatternLength); err != nil {
		return err
	}
	if err := validateFieldLength("content.dir", c.Content.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("content.readySelector", c.Content.ReadySelector, MaxSelectorLength); err != nil {
		return err
	}

	for name, d := range map[string]Duration{
		"timeouts.navigation":         c.Timeouts.Navigation,
		"timeouts.ready":              c.Timeouts.Ready,
		"timeouts.scrollSettle":       c.Timeouts.ScrollSettle,
		"timeouts.scrollReturnSettle": c.Timeouts.ScrollReturnSettle,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, name, d.Std())
		}
	}

	if err := validateNonNegative("run.concurrency", c.Run.Concurrency); err != nil {
		return err
	}
	if err := validateFieldLength("run.workDir", c.Run.WorkDir, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("run.output", c.Run.Output, MaxPathLength)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateNonNegative(fieldName string, v int) error {
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidValue, fieldName, v)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
// A nil getenv means os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvDebug)); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvDebug, v)
		}
		c.Run.Debug = debug
	}
	if v := strings.TrimSpace(getenv(EnvBrowserBin)); v != "" {
		c.Engine.Path = v
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, formatOf(configPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Format is a config file syntax.
type Format string

// Supported syntaxes.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// formatOf picks the syntax from the file extension; anything but .toml is YAML.
func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes and validates data. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}

	var cfg Config
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: unknown fields %s", ErrConfigParse, strings.Join(keys, ", "))
		}
	default:
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order:
// .yaml, .yml, .toml in the current directory, then in
// <user config dir>/go-slidepdf/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml", ".toml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, configDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing path of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
