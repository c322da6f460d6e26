// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/delta-tui/internal/controller"
	"github.com/jeranaias/delta-tui/internal/model"
	"github.com/jeranaias/delta-tui/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting Delta..."
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")

	body := m.viewport.View()
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), body)
	}
	sb.WriteString(body)
	sb.WriteString("\n")

	if m.searchMode {
		sb.WriteString(m.theme.InputContainer.Render("/ " + m.searchInput.View()))
	} else {
		sb.WriteString(m.theme.InputContainer.Render(m.input.View()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.statusView())

	if m.showHelp {
		sb.WriteString("\n")
		sb.WriteString(m.helpView())
	}
	return sb.String()
}

// =============================================================================
// SECTIONS
// =============================================================================

// headerView renders the title bar with the active session's settings.
func (m Model) headerView() string {
	title := "Delta"
	mode := model.ModeChat
	persona := model.PersonaGeneral
	if sess := m.sessions.Active(); sess != nil {
		title = sess.Title
		mode = sess.Mode
		persona = sess.Persona
	}

	left := m.theme.Title.Render(truncate(title, m.width/2))
	right := m.theme.StatusBar.Render(fmt.Sprintf("%s · %s · %s",
		mode, persona, m.statusModel()))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(left + strings.Repeat(" ", gap) + right)
}

// sidebarView renders the session list with the active row highlighted.
func (m Model) sidebarView() string {
	var rows []string
	active := m.sessions.ActiveID()
	for _, sess := range m.visibleSessions() {
		rows = append(rows, m.sessionLabel(sess, sess.ID == active))
	}
	if len(rows) == 0 {
		rows = append(rows, m.theme.SessionMeta.Render("no sessions"))
	}

	content := strings.Join(rows, "\n")
	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.viewport.Height).
		Render(content)
}

// statusView renders the bottom status line.
func (m Model) statusView() string {
	if m.statusMsg != "" {
		return m.theme.StatusBar.Render(truncate(m.statusMsg, m.width-2))
	}
	if m.state == StateStreaming {
		return m.theme.StatusBar.Render(m.spinner.View() + " generating...")
	}
	return m.theme.Help.Render("F1 help · C-n new · C-f search · enter send")
}

// helpView renders the full key binding reference.
func (m Model) helpView() string {
	pairs := []struct{ k, v string }{
		{"enter", "send message"},
		{"C-n", "new session"},
		{"C-d", "delete session"},
		{"C-up/C-down", "switch session"},
		{"C-f", "search sessions"},
		{"C-b", "toggle sidebar"},
		{"C-t", "toggle theme"},
		{"F2", "cycle mode"},
		{"F3", "cycle persona"},
		{"F5/F6", "export md/json"},
		{"F7/F8", "rate up/down"},
		{"PgUp/PgDn", "scroll"},
		{"C-c", "quit"},
	}
	var rows []string
	for _, p := range pairs {
		rows = append(rows, m.theme.StatusKey.Render(p.k)+" "+m.theme.Help.Render(p.v))
	}
	return strings.Join(rows, "\n")
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript content from the active session.
func (m *Model) refreshViewport() {
	sess := m.sessions.Active()
	if sess == nil {
		m.viewport.SetContent(m.welcomeView())
		return
	}
	if len(sess.Messages) == 0 {
		m.viewport.SetContent(m.welcomeView())
		return
	}

	var sb strings.Builder
	for i, msg := range sess.Messages {
		sb.WriteString(m.renderMessage(msg, i == len(sess.Messages)-1))
		sb.WriteString("\n\n")
	}
	m.viewport.SetContent(sb.String())
}

// renderMessage renders one transcript entry.
// The final assistant message renders as plain text while streaming to
// avoid re-running the markdown renderer 30 times a second.
func (m *Model) renderMessage(msg *model.Message, last bool) string {
	switch {
	case msg.Role == model.RoleUser:
		return m.theme.UserLabel.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.UserBubble.Render(msg.Content)

	case msg.IsPending():
		return m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.Pending.Render("thinking...")

	case msg.Content == controller.ErrorFallbackMessage:
		return m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.ErrorText.Render(msg.Content)

	default:
		body := msg.Content
		if !(last && m.state == StateStreaming) {
			body = m.renderMarkdown(msg.Content)
		}
		out := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" + body
		switch msg.Rating {
		case model.RatingUp:
			out += "\n" + m.theme.RatingUp.Render("[+1]")
		case model.RatingDown:
			out += "\n" + m.theme.RatingDown.Render("[-1]")
		}
		return out
	}
}

// welcomeView fills the empty transcript with suggestion prompts.
func (m *Model) welcomeView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Delta AI"))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.Help.Render("Start a conversation, or try:"))
	sb.WriteString("\n\n")
	for _, s := range model.SuggestionPrompts {
		sb.WriteString(m.theme.SessionMeta.Render("  · " + s))
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncate shortens a string to a display width.
func truncate(s string, maxWidth int) string {
	return util.TruncateWidth(s, maxWidth)
}
