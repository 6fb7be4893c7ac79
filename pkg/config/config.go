// Package config provides configuration management for launchmgr.
package config

import (
	"time"

	"github.com/kevinelliott/launchmgr/pkg/platform"
)

// Config represents the application configuration.
type Config struct {
	// Directory overrides for the three descriptor scopes
	Directories DirectoriesConfig `yaml:"directories" json:"directories" mapstructure:"directories"`

	// Daemon interaction settings
	Daemon DaemonConfig `yaml:"daemon" json:"daemon" mapstructure:"daemon"`

	// Status cache settings
	Cache CacheConfig `yaml:"cache" json:"cache" mapstructure:"cache"`

	// UI settings
	UI UIConfig `yaml:"ui" json:"ui" mapstructure:"ui"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
}

// DirectoriesConfig overrides the descriptor directories. Empty values fall
// back to the platform defaults.
type DirectoriesConfig struct {
	// User is the per-user LaunchAgents directory
	User string `yaml:"user" json:"user" mapstructure:"user"`

	// Global is the machine-wide LaunchAgents directory
	Global string `yaml:"global" json:"global" mapstructure:"global"`

	// System is the OS vendor LaunchAgents directory
	System string `yaml:"system" json:"system" mapstructure:"system"`
}

// DaemonConfig contains launchctl invocation settings.
type DaemonConfig struct {
	// Timeout bounds how long a single launchctl call may take
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`

	// LaunchctlPath is a custom path to the launchctl binary
	LaunchctlPath string `yaml:"launchctl_path" json:"launchctl_path" mapstructure:"launchctl_path"`
}

// CacheConfig contains status cache settings.
type CacheConfig struct {
	// Enabled enables the SQLite last-known-status cache
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`

	// Dir is the directory holding the cache database
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
}

// UIConfig contains TUI settings.
type UIConfig struct {
	// Theme is the TUI theme name
	Theme string `yaml:"theme" json:"theme" mapstructure:"theme"`

	// UseColors enables colored output
	UseColors bool `yaml:"use_colors" json:"use_colors" mapstructure:"use_colors"`

	// StatusMessageTTL is how long status line messages stay visible
	StatusMessageTTL time.Duration `yaml:"status_message_ttl" json:"status_message_ttl" mapstructure:"status_message_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" mapstructure:"level"`

	// File is an optional log file path
	File string `yaml:"file" json:"file" mapstructure:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Directories: DirectoriesConfig{},
		Daemon: DaemonConfig{
			Timeout:       5 * time.Second,
			LaunchctlPath: "launchctl",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     platform.GetDataDir(),
		},
		UI: UIConfig{
			Theme:            "default",
			UseColors:        true,
			StatusMessageTTL: 4 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Validate validates the configuration, clamping out-of-range values.
func (c *Config) Validate() error {
	if c.Daemon.Timeout < time.Second {
		c.Daemon.Timeout = time.Second
	}
	if c.Daemon.LaunchctlPath == "" {
		c.Daemon.LaunchctlPath = "launchctl"
	}
	if c.UI.StatusMessageTTL < time.Second {
		c.UI.StatusMessageTTL = time.Second
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = platform.GetDataDir()
	}
	return nil
}

// UserDir returns the effective per-user descriptor directory.
func (c *Config) UserDir() (string, error) {
	if c.Directories.User != "" {
		return c.Directories.User, nil
	}
	return platform.UserAgentsDir()
}

// GlobalDir returns the effective machine-wide descriptor directory.
func (c *Config) GlobalDir() string {
	if c.Directories.Global != "" {
		return c.Directories.Global
	}
	return platform.GlobalAgentsDir
}

// SystemDir returns the effective OS vendor descriptor directory.
func (c *Config) SystemDir() string {
	if c.Directories.System != "" {
		return c.Directories.System
	}
	return platform.SystemAgentsDir
}
