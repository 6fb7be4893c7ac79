// Package catalog discovers launch agent descriptors on disk and keeps
// their probed status for the UI and CLI.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/platform"
	"github.com/kevinelliott/launchmgr/pkg/plist"
)

// Category identifies which launchd directory an agent lives in.
type Category int

const (
	CategoryUser Category = iota
	CategoryGlobal
	CategorySystem
)

// String returns the tab title used in list views.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "User"
	case CategoryGlobal:
		return "Global"
	case CategorySystem:
		return "System"
	default:
		return "Unknown"
	}
}

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{CategoryUser, CategoryGlobal, CategorySystem}
}

// Agent is one discovered descriptor file.
type Agent struct {
	Path     string        `json:"path" yaml:"path"`
	Filename string        `json:"filename" yaml:"filename"`
	Label    string        `json:"label" yaml:"label"`
	Category Category      `json:"-" yaml:"-"`
	State    launchd.State `json:"-" yaml:"-"`
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	StateStr string        `json:"state" yaml:"state"`
}

// Prober reports the status of a labeled agent. *launchd.Client satisfies it.
type Prober interface {
	Stat(ctx context.Context, label string) launchd.Status
}

// Dirs maps each category to the directory scanned for it.
type Dirs struct {
	User   string
	Global string
	System string
}

// DefaultDirs returns the standard per-user, machine-wide, and Apple
// directories.
func DefaultDirs() (Dirs, error) {
	user, err := platform.UserAgentsDir()
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{
		User:   user,
		Global: platform.GlobalAgentsDir,
		System: platform.SystemAgentsDir,
	}, nil
}

func (d Dirs) For(c Category) string {
	switch c {
	case CategoryUser:
		return d.User
	case CategoryGlobal:
		return d.Global
	default:
		return d.System
	}
}

// Catalog holds the discovered agents for every category.
type Catalog struct {
	dirs   Dirs
	prober Prober
	agents map[Category][]Agent
}

// New returns an empty catalog over the given directories. Probing is
// optional; a nil prober leaves every agent's state Unknown.
func New(dirs Dirs, prober Prober) *Catalog {
	return &Catalog{
		dirs:   dirs,
		prober: prober,
		agents: make(map[Category][]Agent),
	}
}

// Refresh rescans one category's directory and re-probes every agent found.
// Agents are ordered by filename. A missing or unreadable directory yields an
// empty list, not an error; individual descriptors that fail to parse are
// listed with their filename standing in for the label.
func (c *Catalog) Refresh(ctx context.Context, cat Category) error {
	dir := c.dirs.For(cat)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			c.agents[cat] = nil
			return nil
		}
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	var agents []Agent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".plist") {
			continue
		}
		agents = append(agents, c.describe(ctx, cat, dir, entry.Name()))
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Filename < agents[j].Filename })

	c.agents[cat] = agents
	return nil
}

// RefreshAll rescans every category.
func (c *Catalog) RefreshAll(ctx context.Context) error {
	for _, cat := range Categories() {
		if err := c.Refresh(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) describe(ctx context.Context, cat Category, dir, filename string) Agent {
	a := Agent{
		Path:     filepath.Join(dir, filename),
		Filename: filename,
		Category: cat,
	}

	a.Label = strings.TrimSuffix(filename, ".plist")
	if doc, err := plist.Load(a.Path); err == nil {
		if doc.Label != nil && *doc.Label != "" {
			a.Label = *doc.Label
		}
	}

	if c.prober != nil {
		st := c.prober.Stat(ctx, a.Label)
		a.State = st.State
		a.Enabled = st.Enabled
	}
	a.StateStr = a.State.String()
	return a
}

// Agents returns the agents last discovered for cat, in filename order.
func (c *Catalog) Agents(cat Category) []Agent {
	return c.agents[cat]
}

// Reprobe refreshes a single agent's status in place after a reload, without
// rescanning the directory. It reports whether the agent was found.
func (c *Catalog) Reprobe(ctx context.Context, cat Category, path string) bool {
	if c.prober == nil {
		return false
	}
	agents := c.agents[cat]
	for i := range agents {
		if agents[i].Path != path {
			continue
		}
		st := c.prober.Stat(ctx, agents[i].Label)
		agents[i].State = st.State
		agents[i].Enabled = st.Enabled
		agents[i].StateStr = st.State.String()
		return true
	}
	return false
}
