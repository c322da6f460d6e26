// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for delta-tui.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/delta-tui/internal/settings"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	ErrorText      lipgloss.Style
	Pending        lipgloss.Style
	RatingUp       lipgloss.Style
	RatingDown     lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar             lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	StatusBar      lipgloss.Style
	StatusKey      lipgloss.Style
	StatusValue    lipgloss.Style
	Spinner        lipgloss.Style
	Help           lipgloss.Style
}

// palette holds the raw colors for one theme variant.
type palette struct {
	accent    lipgloss.Color
	secondary lipgloss.Color
	text      lipgloss.Color
	muted     lipgloss.Color
	border    lipgloss.Color
	danger    lipgloss.Color
	success   lipgloss.Color
	surface   lipgloss.Color
}

var darkPalette = palette{
	accent:    lipgloss.Color("86"),  // cyan
	secondary: lipgloss.Color("213"), // pink
	text:      lipgloss.Color("252"),
	muted:     lipgloss.Color("241"),
	border:    lipgloss.Color("238"),
	danger:    lipgloss.Color("203"),
	success:   lipgloss.Color("114"),
	surface:   lipgloss.Color("236"),
}

var lightPalette = palette{
	accent:    lipgloss.Color("30"), // teal
	secondary: lipgloss.Color("92"), // purple
	text:      lipgloss.Color("235"),
	muted:     lipgloss.Color("245"),
	border:    lipgloss.Color("250"),
	danger:    lipgloss.Color("160"),
	success:   lipgloss.Color("28"),
	surface:   lipgloss.Color("254"),
}

// NewTheme builds the style set for the given theme preference.
func NewTheme(pref settings.Theme) *Theme {
	isDark := pref == settings.ThemeDark
	p := lightPalette
	if isDark {
		p = darkPalette
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}

	t.App = lipgloss.NewStyle()
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.border).
		Padding(0, 1)
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(p.accent)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(p.secondary)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	t.UserBubble = lipgloss.NewStyle().Foreground(p.text)
	t.ErrorText = lipgloss.NewStyle().Foreground(p.danger)
	t.Pending = lipgloss.NewStyle().Foreground(p.muted).Italic(true)
	t.RatingUp = lipgloss.NewStyle().Foreground(p.success)
	t.RatingDown = lipgloss.NewStyle().Foreground(p.danger)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(p.border).
		Padding(0, 1)
	t.SessionItem = lipgloss.NewStyle().Foreground(p.text)
	t.SessionItemSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.accent).
		Background(p.surface)
	t.SessionMeta = lipgloss.NewStyle().Foreground(p.muted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)
	t.StatusBar = lipgloss.NewStyle().Foreground(p.muted)
	t.StatusKey = lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	t.StatusValue = lipgloss.NewStyle().Foreground(p.text)
	t.Spinner = lipgloss.NewStyle().Foreground(p.accent)
	t.Help = lipgloss.NewStyle().Foreground(p.muted)

	return t
}
