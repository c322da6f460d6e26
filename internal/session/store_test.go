// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jeranaias/delta-tui/internal/model"
)

// memPersister is an in-memory Persister for tests.
type memPersister struct {
	saved    []*model.Session
	saves    int
	failSave bool
	failLoad bool
}

func (m *memPersister) SaveSessions(sessions []*model.Session) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.saves++
	m.saved = make([]*model.Session, len(sessions))
	copy(m.saved, sessions)
	return nil
}

func (m *memPersister) LoadSessions() ([]*model.Session, error) {
	if m.failLoad {
		return nil, errors.New("read error")
	}
	return m.saved, nil
}

func testStore(t *testing.T) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(p, logger), p
}

func TestCreateSessionInsertsAtFrontAndActivates(t *testing.T) {
	store, p := testStore(t)

	s1 := store.CreateSession()
	s2 := store.CreateSession()

	sessions := store.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	if sessions[0].ID != s2.ID || sessions[1].ID != s1.ID {
		t.Error("newest session should be at the front")
	}
	if store.ActiveID() != s2.ID {
		t.Error("newest session should be active")
	}
	if s1.Mode != model.ModeChat || s1.Persona != model.PersonaGeneral {
		t.Error("new session defaults wrong")
	}
	if p.saves != 2 {
		t.Errorf("persisted %d times, want 2", p.saves)
	}
}

func TestSelectSession(t *testing.T) {
	store, _ := testStore(t)
	s1 := store.CreateSession()
	store.CreateSession()

	if err := store.SelectSession(s1.ID); err != nil {
		t.Fatalf("SelectSession: %v", err)
	}
	if store.ActiveID() != s1.ID {
		t.Error("selection not applied")
	}

	if err := store.SelectSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if store.ActiveID() != s1.ID {
		t.Error("failed select must not change the active session")
	}
}

func TestDeleteActiveReassignsToFront(t *testing.T) {
	store, _ := testStore(t)
	s3 := store.CreateSession()
	s2 := store.CreateSession()
	s1 := store.CreateSession() // order is now [s1, s2, s3], s1 active

	store.DeleteSession(s1.ID)
	if store.ActiveID() != s2.ID {
		t.Errorf("active = %s, want next front %s", store.ActiveID(), s2.ID)
	}

	// Deleting a non-active session keeps the selection.
	store.DeleteSession(s3.ID)
	if store.ActiveID() != s2.ID {
		t.Error("deleting non-active session changed selection")
	}

	// Deleting the sole remaining session leaves no active session.
	store.DeleteSession(s2.ID)
	if store.ActiveID() != "" {
		t.Errorf("active = %q, want none", store.ActiveID())
	}
	if store.Len() != 0 {
		t.Errorf("len = %d, want 0", store.Len())
	}

	// Unknown id is a no-op.
	store.DeleteSession("missing")
}

func TestSetModeAndPersona(t *testing.T) {
	store, _ := testStore(t)
	s := store.CreateSession()

	store.SetMode(s.ID, model.ModeCode)
	store.SetPersona(s.ID, model.PersonaSavage)

	got := store.Get(s.ID)
	if got.Mode != model.ModeCode || got.Persona != model.PersonaSavage {
		t.Errorf("mode/persona = %v/%v", got.Mode, got.Persona)
	}

	// Mutating a deleted session must not panic.
	store.DeleteSession(s.ID)
	store.SetMode(s.ID, model.ModeChat)
	store.SetPersona(s.ID, model.PersonaGeneral)
}

func TestAppendMessage(t *testing.T) {
	store, p := testStore(t)
	s := store.CreateSession()
	before := s.LastUpdatedAt

	msg := model.NewUserMessage("hello", s.Mode)
	if err := store.AppendMessage(s.ID, msg); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	got := store.Get(s.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != msg.ID {
		t.Error("message not appended")
	}
	if !got.LastUpdatedAt.After(before) && !got.LastUpdatedAt.Equal(before) {
		t.Error("LastUpdatedAt not bumped")
	}
	if p.saves < 2 {
		t.Error("append did not persist")
	}

	// Deleted session surfaces NotFound so a mid-stream cycle can abandon.
	store.DeleteSession(s.ID)
	if err := store.AppendMessage(s.ID, msg); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMessageContent(t *testing.T) {
	store, _ := testStore(t)
	s := store.CreateSession()
	msg := model.NewAssistantMessage(s.Mode)
	store.AppendMessage(s.ID, msg)

	store.UpdateMessageContent(s.ID, msg.ID, "partial text")
	if got := store.Get(s.ID).Messages[0].Content; got != "partial text" {
		t.Errorf("content = %q", got)
	}

	// Absent ids are silent no-ops.
	store.UpdateMessageContent(s.ID, "missing", "x")
	store.UpdateMessageContent("missing", msg.ID, "x")
	if got := store.Get(s.ID).Messages[0].Content; got != "partial text" {
		t.Errorf("no-op update changed content to %q", got)
	}
}

func TestSearch(t *testing.T) {
	store, _ := testStore(t)
	beta := store.CreateSession()
	store.SetTitle(beta.ID, "beta notes")
	alpha := store.CreateSession()
	store.SetTitle(alpha.ID, "Alpha Plan")

	got := store.Search("ALPHA")
	if len(got) != 1 || got[0].ID != alpha.ID {
		t.Fatalf("search(ALPHA) returned %d sessions", len(got))
	}

	got = store.Search("")
	if len(got) != 2 || got[0].ID != alpha.ID || got[1].ID != beta.ID {
		t.Error("empty search should return all sessions in order")
	}

	// Message content matches too.
	store.AppendMessage(beta.ID, model.NewUserMessage("the quarterly forecast", beta.Mode))
	got = store.Search("forecast")
	if len(got) != 1 || got[0].ID != beta.ID {
		t.Error("search should match message content")
	}
}

func TestLoadOnStartup(t *testing.T) {
	p := &memPersister{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first := NewStore(p, logger)
	s1 := first.CreateSession()
	first.SetTitle(s1.ID, "persisted")
	first.AppendMessage(s1.ID, model.NewUserMessage("hello", s1.Mode))

	// Fresh store from the same persister restores collection and
	// activates the front session.
	second := NewStore(p, logger)
	if second.Len() != 1 {
		t.Fatalf("len = %d, want 1", second.Len())
	}
	if second.ActiveID() != s1.ID {
		t.Error("front session should be active after load")
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	p := &memPersister{failLoad: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(p, logger)
	if store.Len() != 0 || store.ActiveID() != "" {
		t.Error("load failure should fall back to empty state")
	}
}

func TestPersistFailureDoesNotBreakMutations(t *testing.T) {
	p := &memPersister{failSave: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(p, logger)

	s := store.CreateSession()
	if store.Len() != 1 {
		t.Error("in-memory create lost on persist failure")
	}
	if err := store.AppendMessage(s.ID, model.NewUserMessage("hi", s.Mode)); err != nil {
		t.Errorf("AppendMessage returned %v on persist failure", err)
	}
}
