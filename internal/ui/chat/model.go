// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/delta-tui/internal/controller"
	"github.com/jeranaias/delta-tui/internal/export"
	"github.com/jeranaias/delta-tui/internal/model"
	"github.com/jeranaias/delta-tui/internal/session"
	"github.com/jeranaias/delta-tui/internal/settings"
	"github.com/jeranaias/delta-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving streaming response
)

const sidebarWidth = 30

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state  State
	keyMap KeyMap
	theme  *styles.Theme
	width  int
	height int
	ready  bool

	// Stores and controller
	sessions *session.Store
	settings *settings.Store
	ctrl     *controller.Controller
	logger   *slog.Logger

	// UI components
	viewport    viewport.Model
	input       textinput.Model
	searchInput textinput.Model
	spinner     spinner.Model

	// Markdown rendering
	renderer *glamour.TermRenderer

	// View toggles
	searchMode     bool
	sidebarVisible bool
	showHelp       bool
	statusMsg      string
}

// New creates the chat view.
func New(sessions *session.Store, cfg *settings.Store, ctrl *controller.Controller, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Ask Delta anything..."
	input.CharLimit = 0
	input.Focus()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search sessions..."

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	current := cfg.Get()
	theme := styles.NewTheme(current.Theme)
	sp.Style = theme.Spinner

	return Model{
		state:          StateReady,
		keyMap:         DefaultKeyMap(),
		theme:          theme,
		sessions:       sessions,
		settings:       cfg,
		ctrl:           ctrl,
		logger:         logger,
		input:          input,
		searchInput:    searchInput,
		spinner:        sp,
		sidebarVisible: !current.SidebarCollapsed,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.rebuildRenderer()
		m.refreshViewport()
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, streamTickCmd()

	case sendFinishedMsg:
		m.state = StateReady
		m.refreshViewport()
		m.viewport.GotoBottom()
		if msg.err != nil && !errors.Is(msg.err, controller.ErrBusy) &&
			!errors.Is(msg.err, controller.ErrEmptyPrompt) {
			m.logger.Warn("send failed", "error", msg.err)
		}
		return m, nil

	case exportFinishedMsg:
		if msg.err != nil {
			m.statusMsg = "export failed: " + msg.err.Error()
		} else {
			m.statusMsg = "exported to " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Search):
		m.searchMode = true
		m.input.Blur()
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keyMap.CancelSearch):
		if m.searchMode {
			m.searchMode = false
			m.searchInput.Reset()
			m.searchInput.Blur()
			m.input.Focus()
		}
		return m, nil
	}

	if m.searchMode {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewSession):
		m.sessions.CreateSession()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteSession):
		if id := m.sessions.ActiveID(); id != "" && m.state == StateReady {
			m.sessions.DeleteSession(id)
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NextSession):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevSession):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		collapsed := !m.sidebarVisible
		m.settings.Set(settings.Partial{SidebarCollapsed: &collapsed})
		m.layout()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleTheme):
		next := settings.ThemeDark
		if m.settings.Get().Theme == settings.ThemeDark {
			next = settings.ThemeLight
		}
		m.settings.Set(settings.Partial{Theme: &next})
		m.theme = styles.NewTheme(next)
		m.spinner.Style = m.theme.Spinner
		m.rebuildRenderer()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.CycleMode):
		if sess := m.sessions.Active(); sess != nil {
			m.sessions.SetMode(sess.ID, nextMode(sess.Mode))
		}
		return m, nil

	case key.Matches(msg, m.keyMap.CyclePersona):
		if sess := m.sessions.Active(); sess != nil {
			m.sessions.SetPersona(sess.ID, nextPersona(sess.Persona))
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ExportMarkdown):
		return m.export(export.NewMarkdownExporter(nil))

	case key.Matches(msg, m.keyMap.ExportJSON):
		return m.export(export.NewJSONExporter(nil))

	case key.Matches(msg, m.keyMap.RateUp):
		m.rateLastAssistant(model.RatingUp)
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.RateDown):
		m.rateLastAssistant(model.RatingDown)
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSearchKey routes input while the search box is focused.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Submit) {
		// Select the first match and close search.
		if results := m.visibleSessions(); len(results) > 0 {
			m.sessions.SelectSession(results[0].ID)
		}
		m.searchMode = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.input.Focus()
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// submit sends the composer text through the controller.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.state == StateStreaming {
		return m, nil
	}

	m.input.Reset()
	m.state = StateStreaming
	// Empty id means the controller creates and activates a session.
	sessionID := m.sessions.ActiveID()
	return m, tea.Batch(
		sendCmd(m.ctrl, text, sessionID),
		streamTickCmd(),
		m.spinner.Tick,
	)
}

// export runs an exporter against a snapshot of the active session.
func (m Model) export(exporter export.Exporter) (tea.Model, tea.Cmd) {
	sess := m.sessions.Active()
	if sess == nil || len(sess.Messages) == 0 {
		m.statusMsg = "nothing to export"
		return m, nil
	}
	// Active already returns a copy, safe to hand to the export goroutine.
	return m, exportCmd(sess, exporter, nil)
}

// rateLastAssistant applies feedback to the newest assistant message.
func (m *Model) rateLastAssistant(r model.Rating) {
	sess := m.sessions.Active()
	if sess == nil {
		return
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == model.RoleAssistant {
			m.sessions.RateMessage(sess.ID, sess.Messages[i].ID, r)
			return
		}
	}
}

// moveSelection moves the active session up or down the visible list.
func (m *Model) moveSelection(delta int) {
	visible := m.visibleSessions()
	if len(visible) == 0 {
		return
	}
	active := m.sessions.ActiveID()
	idx := 0
	for i, s := range visible {
		if s.ID == active {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(visible) {
		idx = len(visible) - 1
	}
	m.sessions.SelectSession(visible[idx].ID)
	m.refreshViewport()
}

// visibleSessions applies the search filter to the sidebar list.
func (m *Model) visibleSessions() []*model.Session {
	if m.searchMode && strings.TrimSpace(m.searchInput.Value()) != "" {
		return m.sessions.Search(m.searchInput.Value())
	}
	return m.sessions.Sessions()
}

// nextMode cycles to the following response mode.
func nextMode(cur model.Mode) model.Mode {
	for i, mm := range model.AllModes {
		if mm == cur {
			return model.AllModes[(i+1)%len(model.AllModes)]
		}
	}
	return model.ModeChat
}

// nextPersona cycles to the following persona.
func nextPersona(cur model.Persona) model.Persona {
	for i, p := range model.AllPersonas {
		if p == cur {
			return model.AllPersonas[(i+1)%len(model.AllPersonas)]
		}
	}
	return model.PersonaGeneral
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout recomputes component dimensions from the window size.
func (m *Model) layout() {
	contentWidth := m.width
	if m.showSidebar() {
		contentWidth -= sidebarWidth
	}
	// Header, input box, and status rows eat vertical space.
	contentHeight := m.height - 6
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport = viewport.New(contentWidth, contentHeight)
	m.input.Width = m.width - 6
	m.searchInput.Width = m.width - 6
}

// showSidebar reports whether the sidebar fits and is enabled.
func (m *Model) showSidebar() bool {
	return m.sidebarVisible && m.width >= 80
}

// rebuildRenderer recreates the markdown renderer for the current width
// and theme.
func (m *Model) rebuildRenderer() {
	style := "light"
	if m.theme.IsDark {
		style = "dark"
	}
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("failed to build markdown renderer", "error", err)
		return
	}
	m.renderer = r
}

// renderMarkdown renders assistant markdown, falling back to plain text.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// statusModel returns the model identifier shown in the header.
func (m *Model) statusModel() string {
	return m.settings.Get().Model
}

// sessionLabel renders one sidebar row.
func (m *Model) sessionLabel(sess *model.Session, active bool) string {
	title := sess.Title
	label := fmt.Sprintf("%s (%d)", title, len(sess.Messages))
	if active {
		return m.theme.SessionItemSelected.Render(truncate(label, sidebarWidth-4))
	}
	return m.theme.SessionItem.Render(truncate(label, sidebarWidth-4))
}
