package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonmend/internal/errors"
	"github.com/mcncl/jsonmend/internal/history"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/repair"
)

// Fallback modes for repair.fallback
const (
	FallbackLibrary = "library"
	FallbackNone    = "none"
)

// Config represents the complete configuration for jsonmend
type Config struct {
	Indent  string        `yaml:"indent" toml:"indent"`
	Repair  RepairConfig  `yaml:"repair" toml:"repair"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	History HistoryConfig `yaml:"history" toml:"history"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`
}

// RepairConfig controls the repair pipeline
type RepairConfig struct {
	Fallback       string   `yaml:"fallback" toml:"fallback"`
	DisabledPasses []string `yaml:"disabled_passes" toml:"disabled_passes"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Color  bool `yaml:"color" toml:"color"`
	Issues bool `yaml:"issues" toml:"issues"` // print the repair issue log to stderr
}

// HistoryConfig controls the interactive undo/redo log
type HistoryConfig struct {
	Size int `yaml:"size" toml:"size"`
}

// BatchConfig controls multi-file processing
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Indent: "2",
		Repair: RepairConfig{
			Fallback:       FallbackLibrary,
			DisabledPasses: []string{},
		},
		Output: OutputConfig{
			Color:  true,
			Issues: true,
		},
		History: HistoryConfig{
			Size: history.DefaultSize,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, errors.NewConfigError(
				fmt.Sprintf("failed to parse config file: unknown keys %s", strings.Join(keys, ", ")),
				nil,
			)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonmend.yml", ".jsonmend.yaml", ".jsonmend.toml", "jsonmend.yml", "jsonmend.yaml", "jsonmend.toml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks every value that has a closed set of options
func (c *Config) Validate() error {
	if _, err := c.IndentSpec(); err != nil {
		return errors.NewConfigError(err.Error(), err)
	}
	switch c.Repair.Fallback {
	case FallbackLibrary, FallbackNone:
	default:
		return errors.NewConfigError(
			fmt.Sprintf("invalid repair.fallback %q (want %q or %q)", c.Repair.Fallback, FallbackLibrary, FallbackNone),
			nil,
		)
	}
	if _, err := c.DisabledPasses(); err != nil {
		return err
	}
	if c.History.Size < 1 {
		return errors.NewConfigError(fmt.Sprintf("history.size must be positive, got %d", c.History.Size), nil)
	}
	if c.Batch.Concurrency < 1 {
		return errors.NewConfigError(fmt.Sprintf("batch.concurrency must be positive, got %d", c.Batch.Concurrency), nil)
	}
	return nil
}

// IndentSpec returns the configured indentation
func (c *Config) IndentSpec() (models.IndentSpec, error) {
	return models.ParseIndent(c.Indent)
}

// DisabledPasses returns the normalized names of the disabled repair passes
func (c *Config) DisabledPasses() ([]repair.Pass, error) {
	passes := make([]repair.Pass, 0, len(c.Repair.DisabledPasses))
	for _, name := range c.Repair.DisabledPasses {
		p, err := repair.ParsePass(name)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	return passes, nil
}

// RepairOptions builds the repair pipeline options from the configuration
func (c *Config) RepairOptions() (repair.Options, error) {
	indent, err := c.IndentSpec()
	if err != nil {
		return repair.Options{}, errors.NewConfigError(err.Error(), err)
	}
	disabled, err := c.DisabledPasses()
	if err != nil {
		return repair.Options{}, err
	}
	opts := repair.Options{Indent: indent, Disabled: disabled}
	if c.Repair.Fallback == FallbackLibrary {
		opts.Fallback = repair.LibraryFallback{}
	}
	return opts, nil
}

// CLIOverrides holds flag values that take precedence over the config file.
// Zero values mean the flag was not given.
type CLIOverrides struct {
	Indent      string
	NoFallback  bool
	NoColor     bool
	HistorySize int
	Concurrency int
}

// MergeConfigs applies CLI overrides to a base config
func MergeConfigs(base *Config, override CLIOverrides) *Config {
	merged := *base // Start with a copy of base

	if override.Indent != "" {
		merged.Indent = override.Indent
	}
	if override.NoFallback {
		merged.Repair.Fallback = FallbackNone
	}
	if override.NoColor {
		merged.Output.Color = false
	}
	if override.HistorySize > 0 {
		merged.History.Size = override.HistorySize
	}
	if override.Concurrency > 0 {
		merged.Batch.Concurrency = override.Concurrency
	}
	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// CLI flags, then the config file, then defaults
func LoadConfigWithCLI(configPath string, overrides CLIOverrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	merged := MergeConfigs(cfg, overrides)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
