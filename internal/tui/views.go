package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kevinelliott/launchmgr/internal/tui/styles"
	"github.com/kevinelliott/launchmgr/pkg/catalog"
	"github.com/kevinelliott/launchmgr/pkg/plist"
)

const sidebarWidth = 38

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.confirmingExit {
		return m.exitConfirmView()
	}

	header := m.headerView()
	search := m.searchView()
	footer := m.footerView()

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(search) - lipgloss.Height(footer) - 2
	if contentHeight < 3 {
		contentHeight = 3
	}

	sidebar := m.sidebarView(contentHeight)
	form := m.formView(contentHeight)
	content := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", form)

	return lipgloss.JoinVertical(lipgloss.Left, header, search, content, footer)
}

// headerView renders the title and category tabs.
func (m Model) headerView() string {
	title := styles.TitleBar.Render(" launchmgr ")

	var tabViews []string
	for i, cat := range catalog.Categories() {
		label := fmt.Sprintf("%d %s", i+1, cat)
		if cat == m.tab {
			tabViews = append(tabViews, styles.TabActive.Render(label))
		} else {
			tabViews = append(tabViews, styles.Tab.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabViews...)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabBar)
}

// searchView renders the filter box.
func (m Model) searchView() string {
	box := styles.Box
	if m.focus == FocusSearch {
		box = styles.BoxFocused
	}
	return box.Width(m.width - 2).Render(m.search.View())
}

// sidebarView renders the agent list for the current tab.
func (m Model) sidebarView(height int) string {
	box := styles.Box
	if m.focus == FocusSidebar {
		box = styles.BoxFocused
	}

	if m.loading {
		return box.Width(sidebarWidth).Height(height).Render(
			fmt.Sprintf("%s Scanning %s agents...", m.spinner.View(), m.tab))
	}

	if len(m.filtered) == 0 {
		msg := "No agents found"
		if m.search.Value() != "" {
			msg = "No agents match " + m.search.Value()
		}
		return box.Width(sidebarWidth).Height(height).Render(styles.InfoMessage.Render(msg))
	}

	count := fmt.Sprintf("%d/%d", len(m.filtered), len(m.agents))

	rows := height - 1
	if rows < 1 {
		rows = 1
	}
	offset := 0
	if m.cursor >= rows {
		offset = m.cursor - rows + 1
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("%s agents (%s)", m.tab, count)))
	b.WriteString("\n")
	for i := offset; i < len(m.filtered) && i < offset+rows; i++ {
		a := m.agents[m.filtered[i]]
		line := fmt.Sprintf("%s %s", styles.StateGlyph(a.State), a.Filename)
		if !a.Enabled {
			line += styles.InfoMessage.Render(" (disabled)")
		}
		if i == m.cursor {
			line = styles.SelectedItem.Render("> " + a.Filename)
			line = fmt.Sprintf("%s %s", styles.StateGlyph(a.State), line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return box.Width(sidebarWidth).Height(height).Render(b.String())
}

// formView renders the descriptor editor for the opened agent.
func (m Model) formView(height int) string {
	box := styles.Box
	if m.focus == FocusForm {
		box = styles.BoxFocused
	}
	width := m.width - sidebarWidth - 5
	if width < 20 {
		width = 20
	}

	if m.doc == nil {
		return box.Width(width).Height(height).Render(
			styles.InfoMessage.Render("Select an agent and press enter to inspect it."))
	}

	var b strings.Builder
	title := styles.Title.Render(m.docTitle())
	b.WriteString(title)
	if m.readOnly {
		b.WriteString(" " + styles.ReadOnlyBadge.Render("[read-only]"))
	} else if m.dirty {
		b.WriteString(" " + styles.WarningMessage.Render("[modified]"))
	}
	b.WriteString("\n\n")

	var lines []string
	for _, f := range plist.Fields() {
		lines = append(lines, m.fieldLines(f)...)
	}
	if unknown := m.doc.UnknownKeys(); len(unknown) > 0 {
		lines = append(lines, "",
			styles.InfoMessage.Render("Preserved keys: "+strings.Join(unknown, ", ")))
	}

	// Window the form on the scroll offset.
	visible := height - 3
	if visible < 1 {
		visible = 1
	}
	start := m.formScroll
	if start > len(lines) {
		start = len(lines)
	}
	end := start + visible
	if end > len(lines) {
		end = len(lines)
	}
	b.WriteString(strings.Join(lines[start:end], "\n"))

	return box.Width(width).Height(height).Render(b.String())
}

func (m Model) docTitle() string {
	if m.doc.Label != nil && *m.doc.Label != "" {
		return *m.doc.Label
	}
	return m.docPath
}

// fieldLines renders one form row: the field name, its value lines, and a
// spacer.
func (m Model) fieldLines(f plist.Field) []string {
	name := f.Name()
	editing := m.session != nil && m.session.Field() == f

	var nameLine string
	switch {
	case editing:
		nameLine = styles.FieldEditing.Render(name)
	case f == m.curField && m.focus == FocusForm:
		nameLine = styles.FieldSelected.Render(name)
	default:
		nameLine = styles.FieldName.Render(name)
	}

	value := m.doc.FieldValue(f)
	if editing {
		value = m.session.Buffer() + "█"
	}
	if value == "" {
		value = styles.InfoMessage.Render("(not set)")
		return []string{nameLine, "  " + value, ""}
	}

	out := []string{nameLine}
	for _, line := range strings.Split(value, "\n") {
		out = append(out, "  "+styles.FieldValue.Render(line))
	}
	return append(out, "")
}

// footerView renders the help line, or the current status message.
func (m Model) footerView() string {
	if m.statusMsg != "" {
		return styles.StatusBar.Width(m.width).Render(m.renderStatus())
	}

	var helpKeys []string
	if m.session != nil {
		helpKeys = []string{
			styles.HelpKey.Render("enter") + styles.Help.Render(" apply"),
			styles.HelpKey.Render("esc") + styles.Help.Render(" cancel"),
			styles.HelpKey.Render("ctrl+j") + styles.Help.Render(" new line"),
		}
	} else {
		helpKeys = []string{
			styles.HelpKey.Render("tab") + styles.Help.Render(" focus"),
			styles.HelpKey.Render("/") + styles.Help.Render(" search"),
			styles.HelpKey.Render("1-3") + styles.Help.Render(" scope"),
			styles.HelpKey.Render("enter") + styles.Help.Render(" open/edit"),
			styles.HelpKey.Render("ctrl+s") + styles.Help.Render(" save"),
			styles.HelpKey.Render("r") + styles.Help.Render(" refresh"),
			styles.HelpKey.Render("q") + styles.Help.Render(" quit"),
		}
	}

	help := strings.Join(helpKeys, "  ")
	if m.saving {
		help = m.spinner.View() + " saving...  " + help
	}
	return styles.StatusBar.Width(m.width).Render(help)
}

func (m Model) renderStatus() string {
	switch {
	case strings.HasPrefix(m.statusMsg, "✓"):
		return styles.SuccessMessage.Render(m.statusMsg)
	case strings.HasPrefix(m.statusMsg, "✗"):
		return styles.ErrorMessage.Render(m.statusMsg)
	case strings.HasPrefix(m.statusMsg, "⚠"):
		return styles.WarningMessage.Render(m.statusMsg)
	default:
		return styles.InfoMessage.Render(m.statusMsg)
	}
}

// exitConfirmView renders the quit confirmation dialog.
func (m Model) exitConfirmView() string {
	msg := "Quit launchmgr?"
	if m.dirty {
		msg = "Quit launchmgr? Unsaved changes will be lost."
	}
	dialog := styles.Dialog.Render(
		msg + "\n\n" +
			styles.HelpKey.Render("y") + styles.Help.Render(" quit") + "   " +
			styles.HelpKey.Render("n") + styles.Help.Render(" stay"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
