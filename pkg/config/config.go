// Package config provides configuration loading and management for dicomview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"dicomview/pkg/series"
	"dicomview/pkg/visualization"
	"dicomview/pkg/windowing"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Decoding parameters
	Decode struct {
		// Workers specifies how many files are decoded in parallel
		Workers int `yaml:"workers"`

		// Extensions filters directory listings; empty means every file.
		// The decoder is always chosen from file content.
		Extensions []string `yaml:"extensions"`

		// SkipInvalid drops undecodable files instead of failing the series
		SkipInvalid bool `yaml:"skipInvalid"`
	} `yaml:"decode"`

	// Windowing parameters
	Windowing struct {
		// SampleLimit caps the samples inspected for the default window
		SampleLimit int `yaml:"sampleLimit"`

		// WidthFactor scales the sampled range into the default width
		WidthFactor float64 `yaml:"widthFactor"`

		// Presets maps names to center/width pairs
		Presets windowing.Presets `yaml:"presets"`
	} `yaml:"windowing"`

	// Output parameters
	Output struct {
		// Format is png or jpeg
		Format string `yaml:"format"`

		// JPEGQuality is used when Format is jpeg
		JPEGQuality int `yaml:"jpegQuality"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Decode.Workers = runtime.NumCPU()
	cfg.Decode.Extensions = nil
	cfg.Decode.SkipInvalid = false

	cfg.Windowing.SampleLimit = windowing.DefaultSampleLimit
	cfg.Windowing.WidthFactor = windowing.DefaultWidthFactor
	cfg.Windowing.Presets = windowing.DefaultPresets()

	cfg.Output.Format = "png"
	cfg.Output.JPEGQuality = 90
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// A presets section in the file replaces the defaults as a whole
	cfg.Windowing.Presets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if cfg.Windowing.Presets == nil {
		cfg.Windowing.Presets = windowing.DefaultPresets()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected by falling back to defaults
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("output.format must be png or jpeg, got %q", c.Output.Format)
	}
	if c.Output.JPEGQuality < 0 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpegQuality must be between 0 and 100, got %d", c.Output.JPEGQuality)
	}
	for name, w := range c.Windowing.Presets {
		if w.Width < 0 {
			return fmt.Errorf("windowing preset %s has negative width %g", name, w.Width)
		}
	}
	return nil
}

// LoaderParams returns the series loader settings
func (c *Config) LoaderParams() *series.Params {
	return &series.Params{
		Workers:     c.Decode.Workers,
		Extensions:  c.Decode.Extensions,
		SkipInvalid: c.Decode.SkipInvalid,
	}
}

// WindowingOptions returns the default window estimation settings
func (c *Config) WindowingOptions() windowing.Options {
	return windowing.Options{
		SampleLimit: c.Windowing.SampleLimit,
		WidthFactor: c.Windowing.WidthFactor,
	}
}

// SaveOptions returns the slice output settings
func (c *Config) SaveOptions() visualization.SaveOptions {
	return visualization.SaveOptions{
		Format:  c.Output.Format,
		Quality: c.Output.JPEGQuality,
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
