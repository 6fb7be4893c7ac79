// Package styles defines the lipgloss styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kevinelliott/launchmgr/pkg/launchd"
)

var (
	// Colors
	primaryColor   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	subtleColor    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	successColor   = lipgloss.AdaptiveColor{Light: "#22863A", Dark: "#57D9A3"}
	warningColor   = lipgloss.AdaptiveColor{Light: "#B08800", Dark: "#E5C07B"}
	errorColor     = lipgloss.AdaptiveColor{Light: "#CB2431", Dark: "#E06C75"}

	// TitleBar is the application title at the top of the screen.
	TitleBar = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	// Title is a section heading.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor)

	// Tab and TabActive render the category tab bar.
	Tab = lipgloss.NewStyle().
		Foreground(subtleColor).
		Padding(0, 2)

	TabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(secondaryColor).
			Padding(0, 2)

	// Box wraps a panel in a rounded border.
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(subtleColor).
		Padding(0, 1)

	// BoxFocused marks the panel that owns keyboard focus.
	BoxFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// SelectedItem highlights the sidebar row under the cursor.
	SelectedItem = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(secondaryColor)

	// FieldName and FieldValue render one form row.
	FieldName = lipgloss.NewStyle().
			Foreground(primaryColor)

	FieldValue = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"})

	// FieldSelected marks the form row under the cursor.
	FieldSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(secondaryColor)

	// FieldEditing marks the row whose value is being typed.
	FieldEditing = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(warningColor)

	// StatusBar is the help/status line at the bottom.
	StatusBar = lipgloss.NewStyle().
			Foreground(subtleColor)

	Help = lipgloss.NewStyle().
		Foreground(subtleColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor)

	// Spinner styles the loading spinner.
	Spinner = lipgloss.NewStyle().
		Foreground(secondaryColor)

	// Messages
	ErrorMessage = lipgloss.NewStyle().
			Foreground(errorColor)

	SuccessMessage = lipgloss.NewStyle().
			Foreground(successColor)

	WarningMessage = lipgloss.NewStyle().
			Foreground(warningColor)

	InfoMessage = lipgloss.NewStyle().
			Foreground(subtleColor)

	// Dialog frames the exit confirmation popup.
	Dialog = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(warningColor).
		Padding(1, 3)

	// ReadOnlyBadge marks descriptors the user cannot write.
	ReadOnlyBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	stateRunning = lipgloss.NewStyle().Foreground(successColor)
	stateStopped = lipgloss.NewStyle().Foreground(subtleColor)
	stateError   = lipgloss.NewStyle().Foreground(errorColor)
	stateUnknown = lipgloss.NewStyle().Foreground(warningColor)
)

// StateGlyph renders the status indicator for one agent.
func StateGlyph(s launchd.State) string {
	switch s {
	case launchd.StateRunning:
		return stateRunning.Render(s.Glyph())
	case launchd.StateStopped:
		return stateStopped.Render(s.Glyph())
	case launchd.StateError:
		return stateError.Render(s.Glyph())
	default:
		return stateUnknown.Render(s.Glyph())
	}
}
