// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// MessageRole represents the sender of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// String returns the string representation of the role.
func (r MessageRole) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r MessageRole) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Delta AI"
	default:
		return string(r)
	}
}

// =============================================================================
// RATING TYPE
// =============================================================================

// Rating is optional user feedback on an assistant message.
type Rating string

const (
	RatingNone Rating = ""
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session.
//
// An assistant message with empty content is pending: streaming has started
// but no fragment has arrived yet. The UI renders it as a loading indicator.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// Mode active when the message was created, denormalized so history
	// renders correctly after the session's mode changes.
	Mode Mode `json:"mode"`

	// Rating is unset until the user gives feedback.
	Rating Rating `json:"rating,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role MessageRole, content string, mode Mode) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Mode:      mode,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string, mode Mode) *Message {
	return NewMessage(RoleUser, content, mode)
}

// NewAssistantMessage creates a new pending assistant message.
// Content stays empty until the first stream fragment is applied.
func NewAssistantMessage(mode Mode) *Message {
	return NewMessage(RoleAssistant, "", mode)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsPending reports whether this is an assistant message still waiting for
// its first fragment.
func (m *Message) IsPending() bool {
	return m.Role == RoleAssistant && m.Content == ""
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
