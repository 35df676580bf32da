package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/michaelscutari/finder/internal/logger"
	"github.com/michaelscutari/finder/internal/progress"
	"github.com/michaelscutari/finder/internal/search"
)

// Config represents finder's defaults file. Command line flags that were set
// explicitly take precedence over every field.
type Config struct {
	// Mode is one of all, file-name, dir-name, content
	Mode string `yaml:"mode"`

	Regex         bool `yaml:"regex"`
	CaseSensitive bool `yaml:"case_sensitive"`
	IgnoreBinary  bool `yaml:"ignore_binary"`
	FollowLinks   bool `yaml:"follow_links"`

	// MaxDepth of -1 means unlimited
	MaxDepth int `yaml:"max_depth"`

	Progress    bool     `yaml:"progress"`
	Hidden      bool     `yaml:"hidden"`
	NoIgnore    bool     `yaml:"no_ignore"`
	IgnoreFiles []string `yaml:"ignore_files"`

	// Workers of 0 uses every available CPU
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// ProgressInterval paces plain progress lines when stderr is not a
	// terminal; 0 disables them
	ProgressInterval time.Duration `yaml:"progress_interval"`
}

// DefaultConfig returns a Config with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:             search.ModeAll.String(),
		IgnoreBinary:     true,
		MaxDepth:         search.Unlimited,
		Progress:         true,
		IgnoreFiles:      append([]string(nil), search.DefaultIgnoreFiles...),
		LogLevel:         "info",
		ProgressInterval: progress.DefaultInterval,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/finder/config.yaml, falling back to
// ~/.config/finder/config.yaml. It returns "" when neither can be derived.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "finder", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "finder", "config.yaml")
}

// fileConfig mirrors Config with pointers so that absent keys keep defaults.
type fileConfig struct {
	Mode             *string  `yaml:"mode"`
	Regex            *bool    `yaml:"regex"`
	CaseSensitive    *bool    `yaml:"case_sensitive"`
	IgnoreBinary     *bool    `yaml:"ignore_binary"`
	FollowLinks      *bool    `yaml:"follow_links"`
	MaxDepth         *int     `yaml:"max_depth"`
	Progress         *bool    `yaml:"progress"`
	Hidden           *bool    `yaml:"hidden"`
	NoIgnore         *bool    `yaml:"no_ignore"`
	IgnoreFiles      []string `yaml:"ignore_files"`
	Workers          *int     `yaml:"workers"`
	LogLevel         *string  `yaml:"log_level"`
	LogFile          *string  `yaml:"log_file"`
	ProgressInterval *string  `yaml:"progress_interval"`
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.Mode, fc.Mode)
	setBool(&cfg.Regex, fc.Regex)
	setBool(&cfg.CaseSensitive, fc.CaseSensitive)
	setBool(&cfg.IgnoreBinary, fc.IgnoreBinary)
	setBool(&cfg.FollowLinks, fc.FollowLinks)
	if fc.MaxDepth != nil {
		cfg.MaxDepth = *fc.MaxDepth
	}
	setBool(&cfg.Progress, fc.Progress)
	setBool(&cfg.Hidden, fc.Hidden)
	setBool(&cfg.NoIgnore, fc.NoIgnore)
	if fc.IgnoreFiles != nil {
		cfg.IgnoreFiles = fc.IgnoreFiles
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFile, fc.LogFile)
	if fc.ProgressInterval != nil {
		d, err := time.ParseDuration(*fc.ProgressInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid progress_interval format %q: %w", *fc.ProgressInterval, err)
		}
		cfg.ProgressInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the values that can be checked without a pattern or root.
func (c *Config) Validate() error {
	var errs []error
	if _, err := search.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.MaxDepth < search.Unlimited {
		errs = append(errs, fmt.Errorf("max_depth must be -1 (unlimited) or >= 0, got %d", c.MaxDepth))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress_interval must be >= 0, got %s", c.ProgressInterval))
	}
	return errors.Join(errs...)
}

// SearchOptions converts the config into search options.
func (c *Config) SearchOptions() (*search.Options, error) {
	mode, err := search.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	return search.DefaultOptions().
		WithMode(mode).
		WithRegex(c.Regex).
		WithCaseSensitive(c.CaseSensitive).
		WithIgnoreBinary(c.IgnoreBinary).
		WithFollowLinks(c.FollowLinks).
		WithMaxDepth(c.MaxDepth).
		WithProgress(c.Progress).
		WithHidden(c.Hidden).
		WithNoIgnore(c.NoIgnore).
		WithIgnoreFiles(c.IgnoreFiles...).
		WithWorkers(c.Workers), nil
}
