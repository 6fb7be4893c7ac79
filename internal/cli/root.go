// Package cli implements the command-line interface for launchmgr.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevinelliott/launchmgr/pkg/config"
)

// NewRootCommand creates the root command for launchmgr.
func NewRootCommand(cfg *config.Config, version, commit, date string) *cobra.Command {
	var (
		configFile string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "launchmgr",
		Short: "Launch agent manager for macOS",
		Long: `launchmgr discovers, inspects, and edits per-user launchd agents,
keeping launchd in sync as descriptors change.

It scans the user, machine-wide, and OS vendor LaunchAgents directories,
probes each agent's state through launchctl, and lets you edit descriptor
files field by field.

Examples:
  launchmgr                        # Launch the interactive UI
  launchmgr agent list             # List agents with their states
  launchmgr agent status com.user.backup
  launchmgr agent load backup.plist`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Reload config if custom path specified
			if configFile != "" {
				loader := config.NewLoader()
				newCfg, err := loader.Load(configFile)
				if err != nil {
					return fmt.Errorf("failed to load config from %s: %w", configFile, err)
				}
				*cfg = *newCfg
			}

			if verbose {
				cfg.Logging.Level = "debug"
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation opens the TUI.
			return runTUI(cfg)
		},
	}

	// Global flags
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	root.AddCommand(
		NewAgentCommand(cfg),
		NewConfigCommand(cfg),
		NewDoctorCommand(cfg),
		NewTUICommand(cfg),
		NewCompletionCommand(),
		NewVersionCommand(version, commit, date),
	)

	return root
}

// printSuccess prints a success message with a checkmark.
func printSuccess(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// printInfo prints an info message.
func printInfo(format string, args ...interface{}) {
	fmt.Printf("ℹ "+format+"\n", args...)
}

// printWarning prints a warning message.
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// printError prints an error message.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}
