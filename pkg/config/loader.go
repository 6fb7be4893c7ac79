package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kevinelliott/launchmgr/pkg/platform"
)

const (
	// ConfigFileName is the name of the config file (without extension)
	ConfigFileName = "config"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "LAUNCHMGR"
)

// Loader handles configuration loading and saving.
type Loader struct {
	v        *viper.Viper
	filePath string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from file and environment.
// Priority: env > file > defaults
func (l *Loader) Load(customPath string) (*Config, error) {
	l.setDefaults()

	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	if customPath != "" {
		l.v.SetConfigFile(customPath)
		l.filePath = customPath
	} else {
		configDir := platform.GetConfigDir()
		l.v.AddConfigPath(configDir)
		l.filePath = filepath.Join(configDir, ConfigFileName+".yaml")
		l.v.AddConfigPath(".")
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()

	// Read config file (ignore not found)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to file.
func (l *Loader) Save(cfg *Config) error {
	dir := filepath.Dir(l.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	l.v.Set("directories", cfg.Directories)
	l.v.Set("daemon", cfg.Daemon)
	l.v.Set("cache", cfg.Cache)
	l.v.Set("ui", cfg.UI)
	l.v.Set("logging", cfg.Logging)

	if err := l.v.WriteConfigAs(l.filePath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetFilePath returns the path to the config file.
func (l *Loader) GetFilePath() string {
	return l.filePath
}

// SetAndSave sets a configuration value and saves the entire config to file.
func (l *Loader) SetAndSave(key string, value interface{}) error {
	l.v.Set(key, value)

	dir := filepath.Dir(l.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := l.v.WriteConfigAs(l.filePath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get gets a configuration value by key path.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// setDefaults sets the default values in viper.
func (l *Loader) setDefaults() {
	defaults := Default()

	l.v.SetDefault("directories.user", defaults.Directories.User)
	l.v.SetDefault("directories.global", defaults.Directories.Global)
	l.v.SetDefault("directories.system", defaults.Directories.System)

	l.v.SetDefault("daemon.timeout", defaults.Daemon.Timeout)
	l.v.SetDefault("daemon.launchctl_path", defaults.Daemon.LaunchctlPath)

	l.v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	l.v.SetDefault("cache.dir", defaults.Cache.Dir)

	l.v.SetDefault("ui.theme", defaults.UI.Theme)
	l.v.SetDefault("ui.use_colors", defaults.UI.UseColors)
	l.v.SetDefault("ui.status_message_ttl", defaults.UI.StatusMessageTTL)

	l.v.SetDefault("logging.level", defaults.Logging.Level)
	l.v.SetDefault("logging.file", defaults.Logging.File)
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	return filepath.Join(platform.GetConfigDir(), ConfigFileName+".yaml")
}
