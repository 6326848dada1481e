// Package config loads vbsnap settings from defaults, an optional YAML
// file, VBSNAP_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/vbsnap/internal/machine"
	"github.com/jbweber/vbsnap/internal/output"
	"github.com/jbweber/vbsnap/internal/vbox"
)

// EnvPrefix prefixes every environment variable the config reads,
// e.g. VBSNAP_GROUP.
const EnvPrefix = "VBSNAP"

// Config holds every vbsnap setting.
type Config struct {
	// Group is the host group vbsnap manages.
	Group string `mapstructure:"group" yaml:"group"`
	// DB is the inventory file.
	DB string `mapstructure:"db" yaml:"db"`
	// VBoxManage is the control tool path or name.
	VBoxManage string `mapstructure:"vboxmanage" yaml:"vboxmanage"`
	// StartPort is the first console port of an empty inventory.
	StartPort int `mapstructure:"start_port" yaml:"start_port"`
	// Output is text, table, json or yaml.
	Output string `mapstructure:"output" yaml:"output"`
	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Debug forces LogLevel to debug.
	Debug bool `mapstructure:"debug" yaml:"debug,omitempty"`
	// Interactive reads commands from stdin.
	Interactive bool `mapstructure:"cli" yaml:"cli,omitempty"`
	// NoScan skips the rescan at startup.
	NoScan bool `mapstructure:"no_scan" yaml:"no_scan,omitempty"`
	// Prune drops records of machines no longer on the host.
	Prune bool `mapstructure:"prune" yaml:"prune,omitempty"`
	// MetricsFile is a Prometheus textfile written at exit.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Group:      machine.DefaultGroup,
		DB:         "~/.vbscan",
		VBoxManage: vbox.DefaultTool,
		StartPort:  3000,
		Output:     string(output.FormatText),
		LogLevel:   logrus.InfoLevel.String(),
	}
}

// DefaultPath returns the config file read when no path is given:
// $HOME/.config/vbsnap/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vbsnap", "config.yaml"), nil
}

// NewViper returns a viper instance seeded with the defaults and reading
// VBSNAP_* environment variables. Flags are bound to it by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	d := Defaults()
	v.SetDefault("group", d.Group)
	v.SetDefault("db", d.DB)
	v.SetDefault("vboxmanage", d.VBoxManage)
	v.SetDefault("start_port", d.StartPort)
	v.SetDefault("output", d.Output)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("cli", d.Interactive)
	v.SetDefault("no_scan", d.NoScan)
	v.SetDefault("prune", d.Prune)
	v.SetDefault("metrics_file", d.MetricsFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v and decodes the result.
//
// An explicit path must exist. With an empty path the default location is
// tried and silently skipped when missing.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Normalize expands "~" in the inventory path and applies Debug.
func (c *Config) Normalize() error {
	if c.DB == "~" || strings.HasPrefix(c.DB, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to expand db path %s: %w", c.DB, err)
		}
		c.DB = filepath.Join(home, strings.TrimPrefix(c.DB, "~"))
	}

	c.Output = strings.ToLower(c.Output)
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.Debug {
		c.LogLevel = logrus.DebugLevel.String()
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Group == "" {
		return fmt.Errorf("group is required")
	}
	if c.DB == "" {
		return fmt.Errorf("db is required")
	}
	if c.VBoxManage == "" {
		return fmt.Errorf("vboxmanage is required")
	}
	if c.StartPort <= 0 || c.StartPort > 65535 {
		return fmt.Errorf("start_port must be between 1 and 65535, got %d", c.StartPort)
	}
	if err := output.ValidateFormat(c.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// WriteFile saves cfg as YAML to path, creating parent directories.
func WriteFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
