// Package view renders documents, issues and differences for the terminal.
package view

import "github.com/charmbracelet/lipgloss"

var (
	colorKey     = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B78FF"}
	colorString  = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	colorNumber  = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorBoolean = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	colorNull    = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
)

// Theme holds the styles used by every renderer in this package.
type Theme struct {
	Key     lipgloss.Style
	String  lipgloss.Style
	Number  lipgloss.Style
	Boolean lipgloss.Style
	Null    lipgloss.Style

	Path   lipgloss.Style
	Border lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style

	Success lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
	Caret   lipgloss.Style
}

// DefaultTheme returns the standard color theme.
func DefaultTheme() Theme {
	return Theme{
		Key:     lipgloss.NewStyle().Foreground(colorKey).Bold(true),
		String:  lipgloss.NewStyle().Foreground(colorString),
		Number:  lipgloss.NewStyle().Foreground(colorNumber),
		Boolean: lipgloss.NewStyle().Foreground(colorBoolean),
		Null:    lipgloss.NewStyle().Foreground(colorNull).Italic(true),

		Path:   lipgloss.NewStyle().Foreground(colorNull).Faint(true),
		Border: lipgloss.NewStyle().Foreground(colorBorder),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),

		Success: lipgloss.NewStyle().Foreground(colorString).Bold(true),
		Failure: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colorNull),
		Caret:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}
}

// PlainTheme returns a theme without any styling.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Key: s, String: s, Number: s, Boolean: s, Null: s,
		Path: s, Border: s, Header: s.Padding(0, 1), Cell: s.Padding(0, 1),
		Success: s, Failure: s, Muted: s, Caret: s,
	}
}
