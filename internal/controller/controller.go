// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/delta-tui/internal/genai"
	"github.com/jeranaias/delta-tui/internal/model"
	"github.com/jeranaias/delta-tui/internal/session"
	"github.com/jeranaias/delta-tui/internal/settings"
)

// ErrorFallbackMessage replaces the assistant message content when a
// generation stream fails. It is the only user-visible failure signal.
const ErrorFallbackMessage = "Error: Failed to get response. Please check your network or API key."

var (
	// ErrEmptyPrompt indicates a send with empty or whitespace-only text.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrBusy indicates a send while a generation is already in flight.
	ErrBusy = errors.New("generation already in progress")

	// ErrGeneration wraps a failed generation stream. By the time it is
	// returned the assistant message already carries ErrorFallbackMessage.
	ErrGeneration = errors.New("generation failed")
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State is the controller's position in a generation cycle.
type State int

const (
	// Idle means no cycle is in flight.
	Idle State = iota
	// AwaitingSession means a target session is being created for the send.
	AwaitingSession
	// Streaming means fragments are being folded into the assistant message.
	Streaming
	// Finalizing means the stream ended and titling/error replacement runs.
	Finalizing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingSession:
		return "AwaitingSession"
	case Streaming:
		return "Streaming"
	case Finalizing:
		return "Finalizing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// Generator is the text-generation collaborator. *genai.Client satisfies it.
type Generator interface {
	StreamResponse(ctx context.Context, prompt string, history []*model.Message,
		persona model.Persona, mode model.Mode, params genai.Params,
		callback genai.StreamCallback) error
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

// SettingsReader provides the generation parameters for a request.
// *settings.Store satisfies it.
type SettingsReader interface {
	Get() settings.UserSettings
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one request/response cycle for one session at a time.
type Controller struct {
	mu       sync.Mutex
	state    State
	store    *session.Store
	gen      Generator
	settings SettingsReader
	logger   *slog.Logger

	// onUpdate, when set, fires after every store mutation made by an
	// in-flight cycle so the presentation layer can refresh.
	onUpdate func()
}

// New creates a generation controller.
func New(store *session.Store, gen Generator, s SettingsReader, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:    Idle,
		store:    store,
		gen:      gen,
		settings: s,
		logger:   logger,
	}
}

// SetOnUpdate registers a hook fired after each streaming-cycle mutation.
func (c *Controller) SetOnUpdate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// notify fires the update hook if one is registered.
func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// setState transitions the state machine.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// =============================================================================
// SEND CYCLE
// =============================================================================

// Send runs one full generation cycle and blocks until it completes.
// sessionID may be empty, in which case a new session is created and
// activated first. Rejected sends (empty text, cycle already in flight)
// return immediately without touching any session.
//
// The returned error reports why a cycle failed or was rejected; stream
// failures are already reflected in the transcript as the fixed error
// string by the time Send returns.
func (c *Controller) Send(ctx context.Context, text, sessionID string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyPrompt
	}

	// Claim the single in-flight slot.
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	if sessionID == "" {
		c.state = AwaitingSession
	} else {
		c.state = Streaming
	}
	c.mu.Unlock()

	// Whatever happens below, the controller returns to Idle.
	defer c.setState(Idle)

	if sessionID == "" {
		sessionID = c.store.CreateSession().ID
		c.setState(Streaming)
	}

	target := c.store.Get(sessionID)
	if target == nil {
		return fmt.Errorf("send: %w", session.ErrNotFound)
	}

	// Capture the outgoing history and first-exchange flag before the user
	// message lands. The request context deliberately excludes the new
	// prompt text; it travels separately as the final user turn. target is
	// a private copy, so the slice is safe to hold across the stream.
	history := target.Messages
	firstExchange := len(history) == 0
	mode := target.Mode
	persona := target.Persona

	userMsg := model.NewUserMessage(text, mode)
	if err := c.store.AppendMessage(sessionID, userMsg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	assistantMsg := model.NewAssistantMessage(mode)
	if err := c.store.AppendMessage(sessionID, assistantMsg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	c.notify()

	cfg := c.settings.Get()
	params := genai.Params{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	// Fragments apply in arrival order as full-content replacements.
	var accumulated strings.Builder
	streamErr := c.gen.StreamResponse(ctx, text, history, persona, mode, params,
		func(fragment string) {
			accumulated.WriteString(fragment)
			c.store.UpdateMessageContent(sessionID, assistantMsg.ID, accumulated.String())
			c.notify()
		})

	c.setState(Finalizing)

	if streamErr != nil {
		c.logger.Warn("generation stream failed",
			"session", sessionID, "error", streamErr)
		c.store.UpdateMessageContent(sessionID, assistantMsg.ID, ErrorFallbackMessage)
		c.notify()
		return fmt.Errorf("%w: %v", ErrGeneration, streamErr)
	}

	if firstExchange {
		c.generateTitle(ctx, sessionID, text)
	}
	return nil
}

// generateTitle runs the one-shot title call for a session's first exchange.
// Failures keep the placeholder title and are never user-visible.
func (c *Controller) generateTitle(ctx context.Context, sessionID, prompt string) {
	title, err := c.gen.GenerateTitle(ctx, prompt)
	if err != nil {
		c.logger.Debug("title generation failed, keeping placeholder",
			"session", sessionID, "error", err)
		return
	}
	c.store.SetTitle(sessionID, title)
	c.notify()
}
