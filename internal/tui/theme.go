package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/goalcheck/goalcheck/internal/session"
)

// Theme is the palette used by the checklist view.
type Theme struct {
	Name     string
	Title    lipgloss.Style
	Item     lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Error    lipgloss.Style
	Footer   lipgloss.Style
	Spinner  lipgloss.Style
	Gradient [2]string
}

// ThemeFor returns the named palette. Anything but "light" is dark.
func ThemeFor(name string) Theme {
	if name == session.ThemeLight {
		return Theme{
			Name:     session.ThemeLight,
			Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1F3A93")).Bold(true),
			Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Bold(true),
			Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
			Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00796B")),
			Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C62828")).Padding(0, 1),
			Footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8D6E63")).Italic(true),
			Spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("#1F3A93")),
			Gradient: [2]string{"#1F3A93", "#00796B"},
		}
	}
	return Theme{
		Name:     session.ThemeDark,
		Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("#EEEEEE")).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#FF6B6B")).Padding(0, 1),
		Footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Italic(true),
		Spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		Gradient: [2]string{"#5B8DEF", "#4CAF50"},
	}
}
