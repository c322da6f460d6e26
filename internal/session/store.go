// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jeranaias/delta-tui/internal/model"
)

// ErrNotFound indicates an operation referenced a session or message id
// that no longer exists.
var ErrNotFound = errors.New("session not found")

// Persister is the durable snapshot backend for the session collection.
// *storage.Store satisfies it.
type Persister interface {
	SaveSessions(sessions []*model.Session) error
	LoadSessions() ([]*model.Session, error)
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store owns the ordered session collection and the active selection.
type Store struct {
	mu        sync.RWMutex
	sessions  []*model.Session
	activeID  string
	persister Persister
	logger    *slog.Logger
}

// NewStore creates a session store, loading the persisted snapshot if one
// exists. Load failures fall back to an empty collection. When sessions
// load, the front one becomes active.
func NewStore(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{persister: p, logger: logger}

	if p != nil {
		sessions, err := p.LoadSessions()
		if err != nil {
			logger.Warn("failed to load sessions, starting empty", "error", err)
		} else {
			s.sessions = sessions
		}
	}
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
	}
	return s
}

// persist writes the full collection. Failures are logged, never returned:
// an unwritable disk must not break in-memory chat.
func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveSessions(s.sessions); err != nil {
		s.logger.Warn("failed to persist sessions", "error", err)
	}
}

// =============================================================================
// COLLECTION ACCESS
// =============================================================================

// Sessions returns a deep copy of the session collection in order. Copies
// keep readers race-free against an in-flight generation writing fragments.
func (s *Store) Sessions() []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Get returns a deep copy of the session with the given id, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess := s.find(id); sess != nil {
		return sess.Clone()
	}
	return nil
}

// find returns the session with the given id. Caller holds the lock.
func (s *Store) find(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// ActiveID returns the active session id, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns a deep copy of the active session, or nil.
func (s *Store) Active() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return nil
	}
	if sess := s.find(s.activeID); sess != nil {
		return sess.Clone()
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateSession allocates a new empty session, inserts it at the front of
// the collection, and makes it active. Never fails. Returns a copy.
func (s *Store) CreateSession() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.NewSession(model.ModeChat, model.PersonaGeneral)
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.persist()
	return sess.Clone()
}

// SelectSession makes the session with the given id active.
// Returns ErrNotFound (without changing the selection) for unknown ids.
func (s *Store) SelectSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) == nil {
		return ErrNotFound
	}
	s.activeID = id
	return nil
}

// DeleteSession removes the session with the given id. If it was active,
// the new front of the remaining collection becomes active; an empty
// collection leaves no active session. Unknown ids are a no-op.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.persist()
}

// SetMode updates a session's mode. Unknown ids are a silent no-op.
func (s *Store) SetMode(id string, mode model.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return
	}
	sess.Mode = mode
	s.persist()
}

// SetPersona updates a session's persona. Unknown ids are a silent no-op.
func (s *Store) SetPersona(id string, persona model.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return
	}
	sess.Persona = persona
	s.persist()
}

// SetTitle updates a session's title. Unknown ids are a silent no-op.
func (s *Store) SetTitle(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil || title == "" {
		return
	}
	sess.Title = title
	s.persist()
}

// AppendMessage appends a message to a session's history and bumps its
// LastUpdatedAt. Returns ErrNotFound when the session no longer exists,
// so an in-flight generation can abandon its cycle cleanly.
func (s *Store) AppendMessage(sessionID string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(sessionID)
	if sess == nil {
		return ErrNotFound
	}
	sess.Append(msg)
	s.persist()
	return nil
}

// UpdateMessageContent replaces the content of one message in place.
// Unknown session or message ids are a silent no-op. Updates are full
// replacements, so a missed update self-heals on the next one.
func (s *Store) UpdateMessageContent(sessionID, messageID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(sessionID)
	if sess == nil {
		return
	}
	msg := sess.Message(messageID)
	if msg == nil {
		return
	}
	msg.Content = content
	s.persist()
}

// RateMessage records user feedback on a message.
// Unknown ids are a silent no-op.
func (s *Store) RateMessage(sessionID, messageID string, rating model.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(sessionID)
	if sess == nil {
		return
	}
	msg := sess.Message(messageID)
	if msg == nil {
		return
	}
	msg.Rating = rating
	s.persist()
}

// =============================================================================
// SEARCH
// =============================================================================

// Search returns sessions whose title or any message content contains term,
// case-insensitively, preserving collection order. An empty term returns
// every session.
func (s *Store) Search(term string) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.Matches(term) {
			out = append(out, sess.Clone())
		}
	}
	return out
}
