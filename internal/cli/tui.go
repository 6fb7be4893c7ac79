package cli

import (
	"github.com/spf13/cobra"

	"github.com/kevinelliott/launchmgr/internal/tui"
	"github.com/kevinelliott/launchmgr/pkg/config"
)

// NewTUICommand creates the command that launches the interactive UI.
// Bare `launchmgr` does the same thing; this exists so the UI stays
// reachable when scripts shadow the root command with flags.
func NewTUICommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive UI",
		Long: `Open the full-screen terminal UI for browsing, filtering, and
editing launch agents.`,
		Aliases: []string{"ui"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cfg)
		},
	}
}

func runTUI(cfg *config.Config) error {
	return tui.Run(cfg)
}
