// Package tui provides the terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kevinelliott/launchmgr/internal/tui/styles"
	"github.com/kevinelliott/launchmgr/pkg/catalog"
	"github.com/kevinelliott/launchmgr/pkg/config"
	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/platform"
	"github.com/kevinelliott/launchmgr/pkg/plist"
	"github.com/kevinelliott/launchmgr/pkg/reload"
	"github.com/kevinelliott/launchmgr/pkg/storage"
)

// Focus identifies which panel owns keyboard input.
type Focus int

const (
	FocusSearch Focus = iota
	FocusSidebar
	FocusForm
)

// Model is the main TUI model.
type Model struct {
	// Configuration and collaborators
	config      *config.Config
	catalog     *catalog.Catalog
	coordinator *reload.Coordinator
	cache       *storage.Store

	// Data for the current tab
	tab      catalog.Category
	agents   []catalog.Agent
	filtered []int
	cursor   int

	// The descriptor open in the form panel
	doc      *plist.Document
	docPath  string
	readOnly bool
	dirty    bool

	// Form state
	curField   plist.Field
	session    *plist.Session
	formScroll int

	// UI state
	focus          Focus
	confirmingExit bool
	loading        bool
	saving         bool
	width          int
	height         int

	// Transient status line
	statusMsg string
	statusSeq int

	// Cached statuses by path, merged in when a live probe is Unknown
	cachedStatus map[string]storage.Record

	// Components
	search  textinput.Model
	spinner spinner.Model

	// Key bindings
	keys keyMap
}

// New creates a new TUI model.
func New(cfg *config.Config, cat *catalog.Catalog, coord *reload.Coordinator, cache *storage.Store) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ti := textinput.New()
	ti.Placeholder = "type to filter agents"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	return Model{
		config:      cfg,
		catalog:     cat,
		coordinator: coord,
		cache:       cache,
		tab:         catalog.CategoryUser,
		cursor:      -1,
		curField:    plist.FieldLabel,
		focus:       FocusSidebar,
		loading:     true,
		search:      ti,
		spinner:     s,
		keys:        DefaultKeyMap(),
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCachedCmd(),
		m.refreshCmd(),
	)
}

// agentsLoadedMsg is sent when a directory scan completes.
type agentsLoadedMsg struct {
	tab    catalog.Category
	agents []catalog.Agent
	err    error
}

// cachedStatusMsg carries last-known statuses from the local cache.
type cachedStatusMsg struct {
	records map[string]storage.Record
}

// saveDoneMsg is sent when a save/reload attempt completes.
type saveDoneMsg struct {
	res      reload.Result
	path     string
	filename string
}

// statusExpiredMsg clears a stale status message.
type statusExpiredMsg struct {
	seq int
}

// refreshCmd rescans the current tab's directory and persists the probed
// statuses to the cache.
func (m Model) refreshCmd() tea.Cmd {
	cat := m.catalog
	tab := m.tab
	cache := m.cache
	timeout := m.config.Daemon.Timeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*30)
		defer cancel()

		if err := cat.Refresh(ctx, tab); err != nil {
			return agentsLoadedMsg{tab: tab, err: err}
		}
		agents := cat.Agents(tab)

		if cache != nil {
			for _, a := range agents {
				if a.State == launchd.StateUnknown {
					continue
				}
				_ = cache.Put(storage.Record{
					Path:    a.Path,
					Label:   a.Label,
					State:   a.State.String(),
					Enabled: a.Enabled,
				})
			}
		}
		return agentsLoadedMsg{tab: tab, agents: agents}
	}
}

// loadCachedCmd reads last-known statuses so agents whose live probe fails
// still show something useful.
func (m Model) loadCachedCmd() tea.Cmd {
	cache := m.cache
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		records, err := cache.All()
		if err != nil {
			return cachedStatusMsg{}
		}
		byPath := make(map[string]storage.Record, len(records))
		for _, rec := range records {
			byPath[rec.Path] = rec
		}
		return cachedStatusMsg{records: byPath}
	}
}

// saveCmd writes the document and syncs launchd, off the UI goroutine.
func (m Model) saveCmd() tea.Cmd {
	coord := m.coordinator
	cache := m.cache
	doc := m.doc
	path := m.docPath
	timeout := m.config.Daemon.Timeout

	label := filepath.Base(path)
	if doc.Label != nil && *doc.Label != "" {
		label = *doc.Label
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()

		res := coord.Save(ctx, path, label, doc)
		if cache != nil && res.Outcome != reload.SaveFailed {
			_ = cache.Put(storage.Record{
				Path:    path,
				Label:   label,
				State:   res.Status.State.String(),
				Enabled: res.Status.Enabled,
			})
		}
		return saveDoneMsg{res: res, path: path, filename: filepath.Base(path)}
	}
}

// setStatus shows a transient message in the status bar and schedules its
// expiry.
func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusSeq++
	seq := m.statusSeq
	ttl := m.config.UI.StatusMessageTTL
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = msg.Width - 8

	case agentsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setStatus("✗ " + msg.err.Error())
		}
		if msg.tab != m.tab {
			return m, nil
		}
		prevPath := ""
		if a := m.selectedAgent(); a != nil {
			prevPath = a.Path
		}
		m.agents = msg.agents
		m.mergeCachedStatus()
		m.applyFilter()
		m.selectByPath(prevPath)
		return m, nil

	case cachedStatusMsg:
		m.cachedStatus = msg.records
		m.mergeCachedStatus()
		return m, nil

	case saveDoneMsg:
		return m.finishSave(msg)

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.saving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmingExit {
		return m.handleConfirmKeys(msg)
	}
	if m.session != nil {
		return m.handleEditKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.confirmingExit = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m.startSave()

	case key.Matches(msg, m.keys.Search):
		m.focus = FocusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.TabUser):
		return m.switchTab(catalog.CategoryUser)

	case key.Matches(msg, m.keys.TabGlobal):
		return m.switchTab(catalog.CategoryGlobal)

	case key.Matches(msg, m.keys.TabSystem):
		return m.switchTab(catalog.CategorySystem)
	}

	switch m.focus {
	case FocusSearch:
		return m.handleSearchKeys(msg)
	case FocusSidebar:
		return m.handleSidebarKeys(msg)
	default:
		return m.handleFormKeys(msg)
	}
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case FocusSearch:
		m.focus = FocusSidebar
		m.search.Blur()
	case FocusSidebar:
		m.focus = FocusForm
	default:
		m.focus = FocusSearch
	}
	if m.focus == FocusSearch {
		m.search.Focus()
	}
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "esc":
		return m, tea.Quit
	case "n", "N":
		m.confirmingExit = false
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		m.focus = FocusSidebar
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m Model) handleSidebarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		if m.saving {
			return m, m.setStatus("Save in progress, refresh skipped")
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
	}

	n := len(m.filtered)
	if n == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor >= n-1 {
			m.cursor = 0
		} else {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor <= 0 {
			m.cursor = n - 1
		} else {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = n - 1
	case key.Matches(msg, m.keys.Enter):
		return m.openSelected()
	}
	return m, nil
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.curField = m.curField.Next()
		m.scrollToField()
	case key.Matches(msg, m.keys.Up):
		m.curField = m.curField.Prev()
		m.scrollToField()
	case key.Matches(msg, m.keys.PageUp):
		m.formScroll -= 5
		if m.formScroll < 0 {
			m.formScroll = 0
		}
	case key.Matches(msg, m.keys.PageDown):
		m.formScroll += 5
	case key.Matches(msg, m.keys.Enter):
		return m.startEditing()
	}
	return m, nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.session = nil
		return m, m.setStatus("✗ Edit cancelled")

	case "enter":
		if err := m.session.Commit(m.doc); err != nil {
			return m, m.setStatus("✗ " + err.Error())
		}
		name := m.session.Field().Name()
		m.session = nil
		m.dirty = true
		return m, m.setStatus("✓ Updated " + name)

	case "ctrl+j":
		m.session.TypeNewline()

	case "backspace":
		m.session.Backspace()

	// Vim navigation keys and cursor movement stay inert while editing, so
	// a stray j or arrow press never lands in the value.
	case "j", "k", "g", "G", "up", "down", "left", "right", "tab",
		"home", "end", "pgup", "pgdown":

	case " ":
		m.session.TypeRune(' ')

	default:
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				m.session.TypeRune(r)
			}
		}
	}
	return m, nil
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	if m.doc == nil {
		return m, m.setStatus("Select an agent first (enter in the sidebar)")
	}
	if m.readOnly {
		return m, m.setStatus("✗ " + filepath.Base(m.docPath) + " is read-only")
	}
	if m.saving {
		return m, m.setStatus("Save in progress, edit blocked")
	}
	m.session = plist.Begin(m.doc, m.curField)
	return m, nil
}

func (m Model) startSave() (tea.Model, tea.Cmd) {
	if m.doc == nil {
		return m, m.setStatus("Nothing to save")
	}
	if m.readOnly {
		return m, m.setStatus("✗ " + filepath.Base(m.docPath) + " is read-only")
	}
	if m.saving {
		return m, m.setStatus("A save is already in progress")
	}
	m.saving = true
	return m, tea.Batch(m.spinner.Tick, m.saveCmd())
}

func (m Model) finishSave(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	m.saving = false

	var cmd tea.Cmd
	switch msg.res.Outcome {
	case reload.Saved:
		m.dirty = false
		cmd = m.setStatus("✓ Saved and reloaded " + msg.filename)
	case reload.SavedButReloadFailed:
		m.dirty = false
		cmd = m.setStatus("⚠ Saved " + msg.filename + " but reload failed: " + msg.res.Diagnostic)
	default:
		if errors.Is(msg.res.Err, reload.ErrSaveInFlight) {
			return m, m.setStatus("A save is already in progress")
		}
		return m, m.setStatus("✗ " + msg.res.Err.Error())
	}

	// Carry the re-probed status into the sidebar.
	for i := range m.agents {
		if m.agents[i].Path == msg.path {
			m.agents[i].State = msg.res.Status.State
			m.agents[i].Enabled = msg.res.Status.Enabled
			m.agents[i].StateStr = msg.res.Status.State.String()
			break
		}
	}
	return m, cmd
}

func (m Model) switchTab(cat catalog.Category) (tea.Model, tea.Cmd) {
	if cat == m.tab {
		return m, nil
	}
	m.tab = cat
	m.agents = m.catalog.Agents(cat)
	m.mergeCachedStatus()
	m.doc = nil
	m.docPath = ""
	m.dirty = false
	m.search.SetValue("")
	m.applyFilter()
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	a := m.selectedAgent()
	if a == nil {
		return m, nil
	}
	doc, err := plist.Load(a.Path)
	if err != nil {
		// Keep whatever document is already open.
		return m, m.setStatus("✗ " + err.Error())
	}
	m.doc = doc
	m.docPath = a.Path
	m.readOnly = !platform.Writable(a.Path)
	m.dirty = false
	m.curField = plist.FieldLabel
	m.formScroll = 0
	m.focus = FocusForm
	return m, m.setStatus("Opened " + a.Filename)
}

// applyFilter recomputes the filtered view and resets the cursor, matching
// how typing in the search box behaves.
func (m *Model) applyFilter() {
	m.filtered = catalog.Filter(m.agents, m.search.Value())
	if len(m.filtered) == 0 {
		m.cursor = -1
	} else {
		m.cursor = 0
	}
}

// selectByPath moves the cursor back to the agent at path, if it survived a
// refresh.
func (m *Model) selectByPath(path string) {
	if path == "" {
		return
	}
	for i, idx := range m.filtered {
		if m.agents[idx].Path == path {
			m.cursor = i
			return
		}
	}
}

func (m *Model) selectedAgent() *catalog.Agent {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return &m.agents[m.filtered[m.cursor]]
}

// mergeCachedStatus fills in last-known statuses for agents whose live probe
// came back Unknown.
func (m *Model) mergeCachedStatus() {
	if m.cachedStatus == nil {
		return
	}
	for i := range m.agents {
		if m.agents[i].State != launchd.StateUnknown {
			continue
		}
		rec, ok := m.cachedStatus[m.agents[i].Path]
		if !ok {
			continue
		}
		m.agents[i].State = launchd.ParseState(rec.State)
		m.agents[i].Enabled = rec.Enabled
		m.agents[i].StateStr = rec.State + " (cached)"
	}
}

// scrollToField keeps the selected form row inside the visible window.
func (m *Model) scrollToField() {
	pos := 0
	for i, f := range plist.Fields() {
		if f == m.curField {
			pos = i * 3
			break
		}
	}

	const viewportHeight = 20
	const padding = 3

	if pos < m.formScroll+padding {
		m.formScroll = pos - padding
		if m.formScroll < 0 {
			m.formScroll = 0
		}
	} else if pos > m.formScroll+viewportHeight-padding {
		m.formScroll = pos - (viewportHeight - padding)
	}
}

// Run starts the TUI.
func Run(cfg *config.Config) error {
	if !cfg.UI.UseColors {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	client := launchd.NewClient(cfg.Daemon.LaunchctlPath, cfg.Daemon.Timeout)
	dirs, err := agentDirs(cfg)
	if err != nil {
		return err
	}
	cat := catalog.New(dirs, client)
	coord := reload.NewCoordinator(client)

	var cache *storage.Store
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = platform.GetDataDir()
		}
		cache, err = storage.Open(dir)
		if err != nil {
			// The cache is an optimization; run without it.
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	p := tea.NewProgram(
		New(cfg, cat, coord, cache),
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}

func agentDirs(cfg *config.Config) (catalog.Dirs, error) {
	user, err := cfg.UserDir()
	if err != nil {
		return catalog.Dirs{}, fmt.Errorf("resolve user agents dir: %w", err)
	}
	return catalog.Dirs{
		User:   user,
		Global: cfg.GlobalDir(),
		System: cfg.SystemDir(),
	}, nil
}
