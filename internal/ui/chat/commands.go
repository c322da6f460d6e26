// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/delta-tui/internal/controller"
	"github.com/jeranaias/delta-tui/internal/export"
	"github.com/jeranaias/delta-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StreamTickMsg is sent at 30fps during streaming to batch render updates.
type StreamTickMsg struct {
	Time time.Time
}

// sendFinishedMsg reports the end of a generation cycle.
type sendFinishedMsg struct {
	err error
}

// exportFinishedMsg reports the result of a session export.
type exportFinishedMsg struct {
	path string
	err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

// streamTickCmd schedules the next streaming render tick (~30fps).
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// sendCmd runs one generation cycle in the background. The controller
// mutates the session store as fragments arrive; the view re-reads the
// store on stream ticks.
func sendCmd(ctrl *controller.Controller, text, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Send(context.Background(), text, sessionID)
		return sendFinishedMsg{err: err}
	}
}

// exportCmd exports a session snapshot to a file.
func exportCmd(sess *model.Session, exporter export.Exporter, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		path, err := export.ExportToFile(sess, exporter, opts)
		return exportFinishedMsg{path: path, err: err}
	}
}
