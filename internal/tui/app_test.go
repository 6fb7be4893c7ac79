package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kevinelliott/launchmgr/pkg/catalog"
	"github.com/kevinelliott/launchmgr/pkg/config"
	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/plist"
	"github.com/kevinelliott/launchmgr/pkg/reload"
)

type nopReloader struct{}

func (nopReloader) Unload(ctx context.Context, path string) error { return nil }
func (nopReloader) Load(ctx context.Context, path string) error   { return nil }
func (nopReloader) Stat(ctx context.Context, label string) launchd.Status {
	return launchd.Status{State: launchd.StateRunning, Enabled: true}
}

func writeAgent(t *testing.T, dir, filename, label string) {
	t.Helper()
	content := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>` + label + `</string>

    <key>Program</key>
    <string>/usr/bin/true</string>

    <key>StartInterval</key>
    <integer>600</integer>
</dict>
</plist>`
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// newTestModel builds a model over a temp directory with two agents and
// completes the initial scan.
func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()
	writeAgent(t, dir, "backup.plist", "com.user.backup")
	writeAgent(t, dir, "sync.plist", "com.backblaze.sync")

	cfg := config.Default()
	cat := catalog.New(catalog.Dirs{User: dir}, nil)
	m := New(cfg, cat, reload.NewCoordinator(nopReloader{}), nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	next, _ = m.Update(m.refreshCmd()())
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestInitialState(t *testing.T) {
	m := newTestModel(t)

	if m.focus != FocusSidebar {
		t.Errorf("focus = %v, want FocusSidebar", m.focus)
	}
	if len(m.filtered) != 2 {
		t.Errorf("filtered = %d agents, want 2", len(m.filtered))
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if m.doc != nil {
		t.Error("doc should be nil before an agent is opened")
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusForm {
		t.Errorf("after first tab focus = %v, want FocusForm", m.focus)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusSearch {
		t.Errorf("after second tab focus = %v, want FocusSearch", m.focus)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusSidebar {
		t.Errorf("after third tab focus = %v, want FocusSidebar", m.focus)
	}
}

func TestSlashFocusesSearch(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, keyRune('/'))
	if m.focus != FocusSearch {
		t.Errorf("focus = %v, want FocusSearch", m.focus)
	}
}

func TestSearchFiltersAndResetsCursor(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, keyRune('/'))

	// Move to the second agent first, then filter: the cursor resets.
	m.cursor = 1
	for _, r := range "backb" {
		m = update(t, m, keyRune(r))
	}
	if len(m.filtered) != 1 {
		t.Fatalf("filtered = %d agents, want 1 for query %q", len(m.filtered), m.search.Value())
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want reset to 0", m.cursor)
	}
	if got := m.agents[m.filtered[0]].Filename; got != "sync.plist" {
		t.Errorf("match = %q, want sync.plist (label match)", got)
	}

	// Enter returns focus to the sidebar, keeping the filter.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != FocusSidebar {
		t.Errorf("focus = %v, want FocusSidebar", m.focus)
	}
	if len(m.filtered) != 1 {
		t.Error("filter dropped when leaving search")
	}
}

func TestSidebarNavigationWraps(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, keyRune('j'))
	if m.cursor != 1 {
		t.Errorf("after j cursor = %d, want 1", m.cursor)
	}
	m = update(t, m, keyRune('j'))
	if m.cursor != 0 {
		t.Errorf("after wrap cursor = %d, want 0", m.cursor)
	}
	m = update(t, m, keyRune('k'))
	if m.cursor != 1 {
		t.Errorf("after k wrap cursor = %d, want 1", m.cursor)
	}
	m = update(t, m, keyRune('g'))
	if m.cursor != 0 {
		t.Errorf("after g cursor = %d, want 0", m.cursor)
	}
	m = update(t, m, keyRune('G'))
	if m.cursor != 1 {
		t.Errorf("after G cursor = %d, want 1", m.cursor)
	}
}

func TestOpenAgentLoadsForm(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.doc == nil {
		t.Fatal("doc = nil after opening agent")
	}
	if m.doc.Label == nil || *m.doc.Label != "com.user.backup" {
		t.Errorf("doc label = %v, want com.user.backup", m.doc.Label)
	}
	if m.focus != FocusForm {
		t.Errorf("focus = %v, want FocusForm", m.focus)
	}
	if m.curField != plist.FieldLabel {
		t.Errorf("curField = %v, want FieldLabel", m.curField)
	}
}

func TestEditCommitUpdatesDocument(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // open
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // edit Label

	if m.session == nil {
		t.Fatal("session = nil, editing should have started")
	}
	if m.session.Buffer() != "com.user.backup" {
		t.Errorf("buffer = %q, want seeded with current value", m.session.Buffer())
	}

	m = update(t, m, keyRune('2'))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.session != nil {
		t.Error("session should be closed after commit")
	}
	if *m.doc.Label != "com.user.backup2" {
		t.Errorf("Label = %q, want com.user.backup2", *m.doc.Label)
	}
	if !m.dirty {
		t.Error("dirty = false after committed edit")
	}
}

func TestEditRejectionKeepsEditing(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.curField = plist.FieldStartInterval
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// Replace "600" with a non-integer and try to commit.
	for i := 0; i < 3; i++ {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = update(t, m, keyRune('x'))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.session == nil {
		t.Fatal("session closed despite coercion failure")
	}
	if m.doc.StartInterval == nil || *m.doc.StartInterval != 600 {
		t.Errorf("StartInterval = %v, want unchanged 600", m.doc.StartInterval)
	}
	if m.statusMsg == "" {
		t.Error("no status message after rejected commit")
	}
}

func TestEditCancelRestoresNothing(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, keyRune('z'))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.session != nil {
		t.Error("session should be closed after cancel")
	}
	if *m.doc.Label != "com.user.backup" {
		t.Errorf("Label = %q, want unchanged", *m.doc.Label)
	}
	if m.dirty {
		t.Error("dirty = true after cancelled edit")
	}
}

func TestEditBlocksNavigationKeys(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	before := m.session.Buffer()

	for _, msg := range []tea.Msg{
		keyRune('j'), keyRune('k'), keyRune('g'), keyRune('G'),
		tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyTab},
	} {
		m = update(t, m, msg)
	}

	if m.session == nil {
		t.Fatal("session closed by a navigation key")
	}
	if m.session.Buffer() != before {
		t.Errorf("buffer = %q, navigation keys leaked into the value", m.session.Buffer())
	}
	if m.curField != plist.FieldLabel {
		t.Errorf("curField moved to %v while editing", m.curField)
	}
	if m.focus != FocusForm {
		t.Errorf("focus changed to %v while editing", m.focus)
	}
}

func TestQuitConfirmFlow(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab}) // move focus to Form

	m = update(t, m, keyRune('q'))
	if !m.confirmingExit {
		t.Fatal("q did not open the exit confirmation")
	}

	// n cancels and the prior focus is intact.
	m = update(t, m, keyRune('n'))
	if m.confirmingExit {
		t.Error("n did not dismiss the confirmation")
	}
	if m.focus != FocusForm {
		t.Errorf("focus = %v after dismiss, want FocusForm", m.focus)
	}

	// y quits.
	m = update(t, m, keyRune('q'))
	next, cmd := m.Update(keyRune('y'))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("y did not produce a command")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("y produced %T, want tea.QuitMsg", msg)
	}
}

func TestSaveUpdatesSidebarStatus(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saving {
		t.Fatal("saving = false after ctrl+s")
	}

	// A second save attempt while one is in flight is refused.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.statusMsg == "" {
		t.Error("no status message for save-in-flight refusal")
	}

	m = update(t, m, saveDoneMsg{
		res: reload.Result{
			Outcome: reload.Saved,
			Status:  launchd.Status{State: launchd.StateRunning, Enabled: true},
		},
		path:     m.docPath,
		filename: "backup.plist",
	})
	if m.saving {
		t.Error("saving = true after saveDoneMsg")
	}
	if m.dirty {
		t.Error("dirty = true after successful save")
	}

	a := m.agents[m.filtered[0]]
	if a.State != launchd.StateRunning || !a.Enabled {
		t.Errorf("sidebar status = %v/%v, want re-probed Running/enabled", a.State, a.Enabled)
	}
}

func TestSaveReloadFailureKeepsDiagnostic(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, saveDoneMsg{
		res: reload.Result{
			Outcome:    reload.SavedButReloadFailed,
			Diagnostic: "service already loaded",
			Status:     launchd.Status{State: launchd.StateError},
		},
		path:     m.docPath,
		filename: "backup.plist",
	})

	if !strings.Contains(m.statusMsg, "service already loaded") {
		t.Errorf("status = %q, want launchctl's diagnostic surfaced", m.statusMsg)
	}
	if a := m.agents[m.filtered[0]]; a.State != launchd.StateError {
		t.Errorf("sidebar state = %v, want re-probed Error", a.State)
	}
}

func TestReadOnlyBlocksEditingAndSaving(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.readOnly = true

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.session != nil {
		t.Error("editing started on a read-only descriptor")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.saving {
		t.Error("save started on a read-only descriptor")
	}
}

func TestRefreshPreservesSelectionByPath(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, keyRune('j')) // select sync.plist
	selected := m.selectedAgent().Path

	m = update(t, m, m.refreshCmd()())
	if got := m.selectedAgent(); got == nil || got.Path != selected {
		t.Errorf("selection after refresh = %v, want %s", got, selected)
	}
}

func TestFailedOpenKeepsCurrentDocument(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // open backup.plist
	openedPath := m.docPath

	// Corrupt the second descriptor on disk, then try to open it.
	if err := os.WriteFile(m.agents[1].Path, []byte("not a plist"), 0644); err != nil {
		t.Fatal(err)
	}
	m.focus = FocusSidebar
	m = update(t, m, keyRune('j'))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.doc == nil || m.doc.Label == nil || *m.doc.Label != "com.user.backup" {
		t.Error("previously opened document was discarded on a failed load")
	}
	if m.docPath != openedPath {
		t.Errorf("docPath = %q, want %q kept", m.docPath, openedPath)
	}
	if m.statusMsg == "" {
		t.Error("no status message for the failed load")
	}
	if m.focus != FocusSidebar {
		t.Errorf("focus = %v, want FocusSidebar after failed load", m.focus)
	}
}

func TestEditBlockedWhileSaving(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // open
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saving {
		t.Fatal("saving = false after ctrl+s")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.session != nil {
		t.Fatal("editing started while a save was in flight")
	}
	if m.statusMsg == "" {
		t.Error("no status message for the edit refusal")
	}

	m = update(t, m, saveDoneMsg{
		res: reload.Result{
			Outcome: reload.Saved,
			Status:  launchd.Status{State: launchd.StateRunning, Enabled: true},
		},
		path:     m.docPath,
		filename: "backup.plist",
	})

	// Editing works again once the save has finished.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.session == nil {
		t.Error("editing still blocked after the save finished")
	}
}

func TestTabSwitchClearsFilter(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, keyRune('/'))
	for _, r := range "backb" {
		m = update(t, m, keyRune(r))
	}
	if len(m.filtered) != 1 {
		t.Fatalf("filtered = %d agents, want 1 before the switch", len(m.filtered))
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // back to sidebar
	m = update(t, m, keyRune('2'))

	if m.tab != catalog.CategoryGlobal {
		t.Fatalf("tab = %v, want Global", m.tab)
	}
	if m.search.Value() != "" {
		t.Errorf("filter %q survived the category switch", m.search.Value())
	}
	if m.doc != nil {
		t.Error("document survived the category switch")
	}

	// Back on the user tab every agent is visible again.
	m = update(t, m, keyRune('1'))
	if len(m.filtered) != 2 {
		t.Errorf("filtered = %d agents after returning, want 2", len(m.filtered))
	}
}

func TestSidebarShowsMatchAndTotalCounts(t *testing.T) {
	m := newTestModel(t)
	if v := m.sidebarView(20); !strings.Contains(v, "(2/2)") {
		t.Errorf("sidebar header missing (2/2) count:\n%s", v)
	}

	m = update(t, m, keyRune('/'))
	for _, r := range "backb" {
		m = update(t, m, keyRune(r))
	}
	if v := m.sidebarView(20); !strings.Contains(v, "(1/2)") {
		t.Errorf("sidebar header missing (1/2) count:\n%s", v)
	}
}

func TestRefreshRefusedWhileSaving(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m.focus = FocusSidebar

	m = update(t, m, keyRune('r'))
	if m.loading {
		t.Error("refresh started while a save was in flight")
	}
}
