// launchmgr - interactive manager for macOS launch agents
package main

import (
	"fmt"
	"os"

	"github.com/kevinelliott/launchmgr/internal/cli"
	"github.com/kevinelliott/launchmgr/pkg/config"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	loader := config.NewLoader()
	cfg, err := loader.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	root := cli.NewRootCommand(cfg, version, commit, date)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
