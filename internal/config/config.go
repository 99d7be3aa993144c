package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete steploom configuration
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	State     StateConfig     `mapstructure:"state"`
}

// SchedulerConfig controls the simulated worker pool
type SchedulerConfig struct {
	// Workers is the number of workers in the pool (must be >= 1)
	Workers int `mapstructure:"workers"`
	// BaseOffset is added to every letter-derived job duration
	BaseOffset int `mapstructure:"base_offset"`
	// DefaultDuration is used for jobs whose id is not a single letter
	// and that carry no explicit duration (0 = reject such jobs)
	DefaultDuration int `mapstructure:"default_duration"`
}

// InputConfig controls how job files are read
type InputConfig struct {
	// Format forces a loader format; empty means detect from extension.
	// Options: "", "steps", "yaml", "json", "hcl"
	Format string `mapstructure:"format"`
}

// OutputConfig controls what the CLI prints
type OutputConfig struct {
	// Timeline prints the per-time-step worker table after scheduling
	Timeline bool `mapstructure:"timeline"`
	// JSON switches every command to machine-readable output
	JSON bool `mapstructure:"json"`
	// NoColor disables ANSI colors
	NoColor bool `mapstructure:"no_color"`
	// Template is an optional text/template file for the schedule summary
	Template string `mapstructure:"template"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
	// File sends logs to a file instead of stderr
	File string `mapstructure:"file"`
}

// StateConfig controls where saved plans live
type StateConfig struct {
	// Dir holds plan.json and the history/ archive
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Workers:         2,
			BaseOffset:      0,
			DefaultDuration: 0,
		},
		Input: InputConfig{
			Format: "",
		},
		Output: OutputConfig{
			Timeline: false,
			JSON:     false,
			NoColor:  false,
			Template: "",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
		},
		State: StateConfig{
			Dir: ".steploom",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Scheduler defaults
	viper.SetDefault("scheduler.workers", defaults.Scheduler.Workers)
	viper.SetDefault("scheduler.base_offset", defaults.Scheduler.BaseOffset)
	viper.SetDefault("scheduler.default_duration", defaults.Scheduler.DefaultDuration)

	// Input defaults
	viper.SetDefault("input.format", defaults.Input.Format)

	// Output defaults
	viper.SetDefault("output.timeline", defaults.Output.Timeline)
	viper.SetDefault("output.json", defaults.Output.JSON)
	viper.SetDefault("output.no_color", defaults.Output.NoColor)
	viper.SetDefault("output.template", defaults.Output.Template)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.file", defaults.Logging.File)

	// State defaults
	viper.SetDefault("state.dir", defaults.State.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "steploom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".steploom"
	}
	return filepath.Join(home, ".config", "steploom")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
