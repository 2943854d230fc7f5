// Package config loads kitty-mux configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Command line flags (applied by cmd)
//  2. Environment variables (KITTY_MUX_*)
//  3. Config file
//  4. Built-in defaults
//
// Config file search order:
//  1. .kitty-mux.yaml in current directory
//  2. ~/.config/kitty-mux/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all kitty-mux configuration.
type Config struct {
	// Control channel
	ListenOn    string `yaml:"listen_on"`    // kitty listen_on syntax, e.g. "unix:/tmp/kitty"
	Password    string `yaml:"password"`     // remote control password, empty for none
	DialTimeout string `yaml:"dial_timeout"` // Go duration string, e.g. "5s"

	// Switcher
	Theme         string `yaml:"theme"` // "dark" or "light"
	MaxPanes      int    `yaml:"max_panes"`
	RestoreLayout *bool  `yaml:"restore_layout"` // switch the active tab to stack while open

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// Parsed durations (not from YAML, set after loading)
	DialTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	restore := true
	return &Config{
		DialTimeout:   "5s",
		Theme:         "dark",
		MaxPanes:      4,
		RestoreLayout: &restore,
		LogLevel:      "info",
	}
}

// KeepLayout reports whether the active tab's layout must be left alone.
func (c *Config) KeepLayout() bool {
	return c.RestoreLayout != nil && !*c.RestoreLayout
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates cfg and parses derived values. cmd calls it again after
// applying flags.
func (c *Config) Finalize() error {
	var err error
	c.DialTimeoutDuration, err = parseDurationOrDisable(c.DialTimeout, 5*time.Second)
	if err != nil {
		return fmt.Errorf("invalid dial timeout %q: %w", c.DialTimeout, err)
	}
	if c.MaxPanes < 1 {
		return fmt.Errorf("invalid max_panes %d: must be at least 1", c.MaxPanes)
	}
	switch c.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q: want dark or light", c.Theme)
	}
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".kitty-mux.yaml"); err == nil {
		return ".kitty-mux.yaml", data, nil
	}

	// 2. ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "kitty-mux", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.ListenOn != "" {
		cfg.ListenOn = file.ListenOn
	}
	if file.Password != "" {
		cfg.Password = file.Password
	}
	if file.DialTimeout != "" {
		cfg.DialTimeout = file.DialTimeout
	}
	if file.Theme != "" {
		cfg.Theme = file.Theme
	}
	if file.MaxPanes > 0 {
		cfg.MaxPanes = file.MaxPanes
	}
	if file.RestoreLayout != nil {
		cfg.RestoreLayout = file.RestoreLayout
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	if v := os.Getenv("KITTY_MUX_LISTEN_ON"); v != "" {
		cfg.ListenOn = v
	}
	if v := os.Getenv("KITTY_MUX_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("KITTY_MUX_DIAL_TIMEOUT"); v != "" {
		cfg.DialTimeout = v
	}
	if v := os.Getenv("KITTY_MUX_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("KITTY_MUX_MAX_PANES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid KITTY_MUX_MAX_PANES %q: %w", v, err)
		}
		cfg.MaxPanes = n
	}
	if v := os.Getenv("KITTY_MUX_RESTORE_LAYOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KITTY_MUX_RESTORE_LAYOUT %q: %w", v, err)
		}
		cfg.RestoreLayout = &b
	}
	if v := os.Getenv("KITTY_MUX_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("KITTY_MUX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}

	// kitty's own variables
	if cfg.ListenOn == "" {
		if v := os.Getenv("KITTY_LISTEN_ON"); v != "" {
			cfg.ListenOn = v
		}
	}
	if cfg.Password == "" {
		if v := os.Getenv("KITTY_RC_PASSWORD"); v != "" {
			cfg.Password = v
		}
	}
	return nil
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
