package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("39")  // Blue
	colorSecondary = lipgloss.Color("245") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorWarning   = lipgloss.Color("214") // Orange
	colorMuted     = lipgloss.Color("240") // Dark gray

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorPrimary)

	dirStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	contentStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	filterStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	statsStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			MarginBottom(1)
)

// FormatCount formats a count for display.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
