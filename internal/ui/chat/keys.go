// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit         key.Binding
	Quit           key.Binding
	Help           key.Binding
	NewSession     key.Binding
	DeleteSession  key.Binding
	NextSession    key.Binding
	PrevSession    key.Binding
	ToggleSidebar  key.Binding
	ToggleTheme    key.Binding
	CycleMode      key.Binding
	CyclePersona   key.Binding
	Search         key.Binding
	CancelSearch   key.Binding
	ExportMarkdown key.Binding
	ExportJSON     key.Binding
	RateUp         key.Binding
	RateDown       key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new session"),
		),
		DeleteSession: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete session"),
		),
		NextSession: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("C-down", "next session"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("ctrl+up"),
			key.WithHelp("C-up", "prev session"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "sidebar"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "mode"),
		),
		CyclePersona: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "persona"),
		),
		Search: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "search"),
		),
		CancelSearch: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close search"),
		),
		ExportMarkdown: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "export md"),
		),
		ExportJSON: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "export json"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("f7"),
			key.WithHelp("F7", "rate up"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("f8"),
			key.WithHelp("F8", "rate down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
	}
}
