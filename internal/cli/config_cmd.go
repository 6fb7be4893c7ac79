package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kevinelliott/launchmgr/pkg/config"
)

// NewConfigCommand creates the config management command group.
func NewConfigCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and modify launchmgr configuration settings.

Configuration is stored in a YAML file and can be overridden with
environment variables using the LAUNCHMGR_ prefix.`,
	}

	cmd.AddCommand(
		newConfigShowCommand(cfg),
		newConfigGetCommand(cfg),
		newConfigSetCommand(cfg),
		newConfigPathCommand(),
		newConfigInitCommand(cfg),
	)

	return cmd
}

func newConfigShowCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to serialize config: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func newConfigGetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value by key path.

Examples:
  launchmgr config get daemon.timeout
  launchmgr config get directories.user
  launchmgr config get ui.use_colors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			loader := config.NewLoader()
			if _, err := loader.Load(""); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value := loader.Get(key)
			if value == nil {
				return fmt.Errorf("key %q not found in configuration", key)
			}

			fmt.Printf("%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by key path.

Examples:
  launchmgr config set ui.use_colors false
  launchmgr config set daemon.timeout 10s
  launchmgr config set directories.user /tmp/LaunchAgents
  launchmgr config set cache.enabled false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			valueStr := args[1]

			loader := config.NewLoader()
			if _, err := loader.Load(""); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value := parseConfigValue(key, valueStr)

			if err := loader.SetAndSave(key, value); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			printSuccess("Set %s = %s", key, valueStr)
			printInfo("Config saved to %s", config.GetConfigPath())
			return nil
		},
	}
}

// parseConfigValue parses a string value into the appropriate type based on the key.
func parseConfigValue(key, value string) interface{} {
	key = strings.ToLower(key)

	boolKeys := []string{
		"cache.enabled",
		"ui.use_colors",
	}
	for _, k := range boolKeys {
		if key == k {
			return strings.EqualFold(value, "true") || value == "1" || strings.EqualFold(value, "yes")
		}
	}

	durationKeys := []string{
		"daemon.timeout",
		"ui.status_message_ttl",
	}
	for _, k := range durationKeys {
		if key == k {
			if d, err := time.ParseDuration(value); err == nil {
				return d
			}
			return value
		}
	}

	return value
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetConfigPath())
		},
	}
}

func newConfigInitCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration",
		Long: `Create the configuration directory and write the current settings
as the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if _, err := loader.Load(""); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := loader.Save(cfg); err != nil {
				return err
			}
			printSuccess("Configuration initialized at %s", config.GetConfigPath())
			return nil
		},
	}
}
