package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kevinelliott/launchmgr/pkg/catalog"
	"github.com/kevinelliott/launchmgr/pkg/config"
	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/platform"
	"github.com/kevinelliott/launchmgr/pkg/storage"
)

// NewAgentCommand creates the agent command group.
func NewAgentCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect and control launch agents",
		Long: `List discovered launch agents, probe their state, and load or
unload individual descriptors through launchctl.`,
		Aliases: []string{"agents"},
	}

	cmd.AddCommand(
		newAgentListCommand(cfg),
		newAgentStatusCommand(cfg),
		newAgentLoadCommand(cfg),
		newAgentUnloadCommand(cfg),
	)

	return cmd
}

// agentListItem is one row of agent list output.
type agentListItem struct {
	Scope    string `json:"scope" yaml:"scope"`
	Filename string `json:"filename" yaml:"filename"`
	Label    string `json:"label" yaml:"label"`
	State    string `json:"state" yaml:"state"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Path     string `json:"path" yaml:"path"`
}

func newAgentListCommand(cfg *config.Config) *cobra.Command {
	var (
		scope  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List launch agents and their states",
		Long: `Scan the descriptor directories and list every launch agent with
its probed run state and enabled flag.

The --scope flag limits the scan to one directory: user, global, or
system. The default scans all three.`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			cats, err := scopeCategories(scope)
			if err != nil {
				return err
			}

			cat, err := newCatalog(cfg)
			if err != nil {
				return err
			}

			var items []agentListItem
			for _, c := range cats {
				if err := cat.Refresh(ctx, c); err != nil {
					return err
				}
				for _, a := range cat.Agents(c) {
					items = append(items, agentListItem{
						Scope:    c.String(),
						Filename: a.Filename,
						Label:    a.Label,
						State:    a.State.String(),
						Enabled:  a.Enabled,
						Path:     a.Path,
					})
				}
			}

			switch format {
			case "json":
				return outputJSON(items)
			case "yaml":
				return outputYAML(items)
			case "table":
				return outputAgentsTable(items)
			default:
				return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "all", "directory scope (user, global, system, all)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml)")

	return cmd
}

func newAgentStatusCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <label>",
		Short: "Probe one agent's state",
		Long: `Probe the labeled agent through launchctl and print its run state
and enabled flag. If the live probe fails and the status cache holds a
last-known state, that is shown instead.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeAgentLabels(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Daemon.Timeout)
			defer cancel()

			label := args[0]
			client := launchd.NewClient(cfg.Daemon.LaunchctlPath, cfg.Daemon.Timeout)
			st := client.Stat(ctx, label)

			if st.State == launchd.StateUnknown && cfg.Cache.Enabled {
				if rec, ok := cachedStatusByLabel(cfg, label); ok {
					printWarning("live probe failed, showing cached status from %s",
						rec.Updated.Format(time.RFC3339))
					fmt.Printf("%s: %s (enabled: %v)\n", label, rec.State, rec.Enabled)
					return nil
				}
			}

			fmt.Printf("%s: %s (enabled: %v)\n", label, st.State, st.Enabled)
			return nil
		},
	}
}

func newAgentLoadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:               "load <file>",
		Short:             "Load a descriptor into launchd",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDescriptorFiles(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Daemon.Timeout)
			defer cancel()

			path, err := resolveDescriptor(cfg, args[0])
			if err != nil {
				return err
			}

			client := launchd.NewClient(cfg.Daemon.LaunchctlPath, cfg.Daemon.Timeout)
			if err := client.Load(ctx, path); err != nil {
				return err
			}
			printSuccess("Loaded %s", filepath.Base(path))
			return nil
		},
	}
}

func newAgentUnloadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:               "unload <file>",
		Short:             "Unload a descriptor from launchd",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDescriptorFiles(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Daemon.Timeout)
			defer cancel()

			path, err := resolveDescriptor(cfg, args[0])
			if err != nil {
				return err
			}

			client := launchd.NewClient(cfg.Daemon.LaunchctlPath, cfg.Daemon.Timeout)
			if err := client.Unload(ctx, path); err != nil {
				return err
			}
			printSuccess("Unloaded %s", filepath.Base(path))
			return nil
		},
	}
}

// completeAgentLabels suggests the labels of discovered agents. Descriptors
// are parsed but never probed; completion must not shell out to launchctl.
func completeAgentLabels(cfg *config.Config) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var labels []string
		for _, a := range completionAgents(cfg) {
			if strings.HasPrefix(a.Label, toComplete) {
				labels = append(labels, a.Label)
			}
		}
		return labels, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeDescriptorFiles suggests descriptor filenames from the configured
// directories, falling back to regular path completion.
func completeDescriptorFiles(cfg *config.Config) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		for _, a := range completionAgents(cfg) {
			if strings.HasPrefix(a.Filename, toComplete) {
				names = append(names, a.Filename)
			}
		}
		return names, cobra.ShellCompDirectiveDefault
	}
}

func completionAgents(cfg *config.Config) []catalog.Agent {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	user, err := cfg.UserDir()
	if err != nil {
		return nil
	}
	cat := catalog.New(catalog.Dirs{
		User:   user,
		Global: cfg.GlobalDir(),
		System: cfg.SystemDir(),
	}, nil)

	var agents []catalog.Agent
	for _, c := range catalog.Categories() {
		if err := cat.Refresh(ctx, c); err != nil {
			continue
		}
		agents = append(agents, cat.Agents(c)...)
	}
	return agents
}

// newCatalog builds a catalog over the configured directories with a live
// launchctl prober.
func newCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	user, err := cfg.UserDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user agents dir: %w", err)
	}
	dirs := catalog.Dirs{
		User:   user,
		Global: cfg.GlobalDir(),
		System: cfg.SystemDir(),
	}
	client := launchd.NewClient(cfg.Daemon.LaunchctlPath, cfg.Daemon.Timeout)
	return catalog.New(dirs, client), nil
}

func scopeCategories(scope string) ([]catalog.Category, error) {
	switch scope {
	case "user":
		return []catalog.Category{catalog.CategoryUser}, nil
	case "global":
		return []catalog.Category{catalog.CategoryGlobal}, nil
	case "system":
		return []catalog.Category{catalog.CategorySystem}, nil
	case "all":
		return catalog.Categories(), nil
	default:
		return nil, fmt.Errorf("unknown scope %q (want user, global, system, or all)", scope)
	}
}

// resolveDescriptor turns a filename or path into a descriptor path,
// searching the configured directories when given a bare filename.
func resolveDescriptor(cfg *config.Config, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}

	user, err := cfg.UserDir()
	if err != nil {
		return "", err
	}
	for _, dir := range []string{user, cfg.GlobalDir(), cfg.SystemDir()} {
		candidate := filepath.Join(dir, arg)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("descriptor %q not found in any agents directory", arg)
}

func cachedStatusByLabel(cfg *config.Config, label string) (storage.Record, bool) {
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = platform.GetDataDir()
	}
	store, err := storage.Open(dir)
	if err != nil {
		return storage.Record{}, false
	}
	defer store.Close()

	records, err := store.All()
	if err != nil {
		return storage.Record{}, false
	}
	for _, rec := range records {
		if rec.Label == label {
			return rec, true
		}
	}
	return storage.Record{}, false
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func outputAgentsTable(items []agentListItem) error {
	if len(items) == 0 {
		printInfo("No launch agents found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCOPE\tFILE\tLABEL\tSTATE\tENABLED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
			it.Scope, it.Filename, it.Label, it.State, it.Enabled)
	}
	return w.Flush()
}
