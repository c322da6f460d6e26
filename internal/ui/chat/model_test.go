// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jeranaias/delta-tui/internal/controller"
	"github.com/jeranaias/delta-tui/internal/model"
	"github.com/jeranaias/delta-tui/internal/session"
	"github.com/jeranaias/delta-tui/internal/settings"
)

func testModel(t *testing.T) (Model, *session.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewStore(nil, logger)
	cfg := settings.NewStore(nil, logger)
	ctrl := controller.New(sessions, nil, cfg, logger)
	return New(sessions, cfg, ctrl, logger), sessions
}

func TestNextModeCycles(t *testing.T) {
	got := model.ModeChat
	seen := map[model.Mode]bool{got: true}
	for i := 0; i < len(model.AllModes)-1; i++ {
		got = nextMode(got)
		if seen[got] {
			t.Fatalf("mode %v repeated before full cycle", got)
		}
		seen[got] = true
	}
	if next := nextMode(got); next != model.ModeChat {
		t.Errorf("cycle should wrap to Chat, got %v", next)
	}
	if next := nextMode(model.Mode("bogus")); next != model.ModeChat {
		t.Errorf("unknown mode should fall back to Chat, got %v", next)
	}
}

func TestNextPersonaCycles(t *testing.T) {
	got := model.PersonaGeneral
	for i := 0; i < len(model.AllPersonas); i++ {
		got = nextPersona(got)
	}
	if got != model.PersonaGeneral {
		t.Errorf("full cycle should return to General, got %v", got)
	}
}

func TestMoveSelection(t *testing.T) {
	m, sessions := testModel(t)
	s3 := sessions.CreateSession()
	s2 := sessions.CreateSession()
	s1 := sessions.CreateSession() // order: [s1, s2, s3], s1 active

	m.moveSelection(1)
	if sessions.ActiveID() != s2.ID {
		t.Errorf("active = %s, want s2", sessions.ActiveID())
	}
	m.moveSelection(1)
	if sessions.ActiveID() != s3.ID {
		t.Errorf("active = %s, want s3", sessions.ActiveID())
	}
	// Clamped at the end of the list.
	m.moveSelection(1)
	if sessions.ActiveID() != s3.ID {
		t.Error("selection should clamp at last session")
	}
	m.moveSelection(-1)
	m.moveSelection(-1)
	m.moveSelection(-1)
	if sessions.ActiveID() != s1.ID {
		t.Error("selection should clamp at first session")
	}
}

func TestVisibleSessionsFiltersDuringSearch(t *testing.T) {
	m, sessions := testModel(t)
	beta := sessions.CreateSession()
	sessions.SetTitle(beta.ID, "beta notes")
	alpha := sessions.CreateSession()
	sessions.SetTitle(alpha.ID, "Alpha Plan")

	m.searchMode = true
	m.searchInput.SetValue("alpha")
	got := m.visibleSessions()
	if len(got) != 1 || got[0].ID != alpha.ID {
		t.Fatalf("filtered list = %d entries", len(got))
	}

	m.searchInput.SetValue("")
	if got := m.visibleSessions(); len(got) != 2 {
		t.Errorf("blank search should show all, got %d", len(got))
	}
}

func TestSubmitRejectsWhileStreaming(t *testing.T) {
	m, _ := testModel(t)
	m.state = StateStreaming
	m.input.SetValue("hello")

	updated, cmd := m.submit()
	if cmd != nil {
		t.Error("submit while streaming should not produce a command")
	}
	if updated.(Model).input.Value() != "hello" {
		t.Error("composer text should survive a rejected submit")
	}
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	m, _ := testModel(t)
	m.input.SetValue("   ")
	_, cmd := m.submit()
	if cmd != nil {
		t.Error("whitespace-only submit should not produce a command")
	}
}
