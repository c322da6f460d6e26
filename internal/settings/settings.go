// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings owns user-configurable generation and UI parameters.
//
// Settings load once at startup and persist synchronously on every change.
// Loads are fail-silent: missing or corrupt persisted settings fall back to
// defaults. Observers registered with Subscribe are notified after each
// successful change so the presentation layer can react to theme switches.
package settings

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jeranaias/delta-tui/internal/model"
)

// =============================================================================
// SETTINGS TYPES
// =============================================================================

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// UserSettings holds the user-configurable parameters.
type UserSettings struct {
	Theme            Theme   `json:"theme"`
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	SidebarCollapsed bool    `json:"sidebar_collapsed"`
}

// Defaults returns the settings used when nothing is persisted.
func Defaults() UserSettings {
	return UserSettings{
		Theme:            ThemeLight,
		Model:            model.DefaultModel,
		Temperature:      0.7,
		MaxTokens:        2048,
		SidebarCollapsed: false,
	}
}

// Partial is a partial settings update. Nil fields keep their current value.
type Partial struct {
	Theme            *Theme   `json:"theme,omitempty"`
	Model            *string  `json:"model,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	SidebarCollapsed *bool    `json:"sidebar_collapsed,omitempty"`
}

// =============================================================================
// PERSISTENCE BOUNDARY
// =============================================================================

// Persister is the durable key-value backend settings are stored in.
// *storage.Store satisfies it.
type Persister interface {
	PutValue(key string, value []byte) error
	GetValue(key string) ([]byte, error)
}

// storageKey is the key settings are persisted under.
const storageKey = "user_settings"

// =============================================================================
// SETTINGS STORE
// =============================================================================

// Observer receives the new settings after every successful Set.
type Observer func(UserSettings)

// Store holds current settings and persists changes synchronously.
type Store struct {
	mu        sync.RWMutex
	current   UserSettings
	persister Persister
	logger    *slog.Logger
	observers []Observer
}

// NewStore creates a settings store, loading persisted settings if present.
// Missing or corrupt persisted data falls back to Defaults.
func NewStore(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		current:   Defaults(),
		persister: p,
		logger:    logger,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.persister == nil {
		return
	}
	raw, err := s.persister.GetValue(storageKey)
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", "error", err)
		return
	}
	if raw == nil {
		return
	}
	var loaded UserSettings
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("corrupt persisted settings, using defaults", "error", err)
		return
	}
	s.current = clamp(loaded)
}

// Get returns a copy of the current settings.
func (s *Store) Get() UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set merges a partial update over the current settings, persists the
// result synchronously, notifies observers, and returns the new settings.
// Persistence failures are logged, never surfaced: the in-memory update
// still takes effect.
func (s *Store) Set(p Partial) UserSettings {
	s.mu.Lock()

	next := s.current
	if p.Theme != nil {
		next.Theme = *p.Theme
	}
	if p.Model != nil && *p.Model != "" {
		next.Model = *p.Model
	}
	if p.Temperature != nil {
		next.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		next.MaxTokens = *p.MaxTokens
	}
	if p.SidebarCollapsed != nil {
		next.SidebarCollapsed = *p.SidebarCollapsed
	}
	next = clamp(next)
	s.current = next

	if s.persister != nil {
		if raw, err := json.Marshal(next); err == nil {
			if err := s.persister.PutValue(storageKey, raw); err != nil {
				s.logger.Warn("failed to persist settings", "error", err)
			}
		}
	}

	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	// Notify outside the lock so observers may call Get.
	for _, obs := range observers {
		obs(next)
	}
	return next
}

// Subscribe registers an observer called after every successful Set.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// clamp enforces field bounds.
func clamp(u UserSettings) UserSettings {
	if u.Theme != ThemeLight && u.Theme != ThemeDark {
		u.Theme = ThemeLight
	}
	if u.Model == "" {
		u.Model = model.DefaultModel
	}
	if u.Temperature < 0 {
		u.Temperature = 0
	}
	if u.Temperature > 1 {
		u.Temperature = 1
	}
	if u.MaxTokens < 1 {
		u.MaxTokens = 1
	}
	return u
}
