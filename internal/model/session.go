// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTitle is the placeholder title before auto-titling runs.
const DefaultSessionTitle = "New Conversation"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a single conversation: an ordered message history plus the
// mode and persona active for the next generation.
type Session struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Messages      []*Message `json:"messages"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
	Mode          Mode       `json:"mode"`
	Persona       Persona    `json:"persona"`
}

// NewSession creates an empty session with the given mode and persona.
func NewSession(mode Mode, persona Persona) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.NewString(),
		Title:         DefaultSessionTitle,
		Messages:      []*Message{},
		CreatedAt:     now,
		LastUpdatedAt: now,
		Mode:          mode,
		Persona:       persona,
	}
}

// =============================================================================
// SESSION METHODS
// =============================================================================

// Append adds a message to the end of the session history and bumps
// LastUpdatedAt.
func (s *Session) Append(m *Message) {
	s.Messages = append(s.Messages, m)
	s.LastUpdatedAt = time.Now()
}

// Message returns the message with the given ID, or nil.
func (s *Session) Message(id string) *Message {
	for _, m := range s.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil for an empty session.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// IsUntitled reports whether the session still carries the placeholder title.
func (s *Session) IsUntitled() bool {
	return s.Title == DefaultSessionTitle
}

// Matches reports whether the session matches a search query.
// Matching is case-insensitive against the title and all message content.
// An empty query matches everything.
func (s *Session) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), q) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session. Snapshots handed to the
// persistence layer use this so later mutation does not race the writer.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		mc := *m
		clone.Messages[i] = &mc
	}
	return &clone
}
