// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package genai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/delta-tui/internal/model"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the base URL for the Gemini API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout is the default timeout for one-shot API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors on one-shot requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// defaultTopP matches the fixed nucleus-sampling parameter sent with
	// every generation request.
	defaultTopP = 0.95
)

// titleSystemInstruction is the system prompt for the one-shot title call.
const titleSystemInstruction = "You are a helpful, professional, and savage AI assistant. Provide clear, concise, and correct answers. Format your output using Markdown where appropriate."

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for one-shot requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests
	// (no timeout, context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		// No timeout for streaming - controlled via context
	}
)

// Error variables for common Gemini API errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Gemini API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates the API returned no candidates.
	ErrEmptyResponse = errors.New("empty response from model")
)

// APIError represents an error response from the Gemini API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Gemini error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("Gemini error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// Part is a single piece of content within a turn.
type Part struct {
	Text string `json:"text"`
}

// Content is one conversation turn. Role is "user" or "model".
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig carries the tunable generation parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// generateRequest is the request body for both streaming and one-shot calls.
type generateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// generateResponse is the response body for one-shot calls and the
// per-event payload for streaming calls.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// text returns the concatenated text of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// finished reports whether the first candidate carries a finish reason.
func (r *generateResponse) finished() bool {
	return len(r.Candidates) > 0 && r.Candidates[0].FinishReason != ""
}

// Params are the per-request generation parameters, read from user settings
// by the caller.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a Gemini API client.
type Client struct {
	mu           sync.RWMutex
	apiKey       string
	baseURL      string
	defaultModel string
	maxRetries   int
	limiter      *rate.Limiter
	httpClient   *http.Client
	streamer     *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithDefaultModel overrides the model used when a request names none.
func WithDefaultModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.defaultModel = name
		}
	}
}

// WithMaxRetries overrides the retry count for one-shot requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRateLimit overrides the request pacing limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a Gemini client.
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		defaultModel: model.DefaultModel,
		maxRetries:   DefaultMaxRetries,
		// Gemini free tier allows ~10 requests/minute; leave headroom.
		limiter:    rate.NewLimiter(rate.Every(time.Second), 4),
		httpClient: sharedHTTPClient,
		streamer:   sharedStreamingClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultModelName returns the configured fallback model.
func (c *Client) defaultModelName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultModel
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// SetAPIKey replaces the API key. Used by config hot reload.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

// setHeaders applies the standard request headers.
func (c *Client) setHeaders(req *http.Request) {
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

// GenerateTitle produces a short descriptive title for a conversation that
// starts with the given prompt. Surrounding quotes the model tends to add
// are stripped. Callers treat any error as "keep the placeholder title".
func (c *Client) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents: []Content{{
			Role: "user",
			Parts: []Part{{
				Text: fmt.Sprintf(
					"Generate a short (max 5 words) descriptive title for a chat that starts with this prompt: %q. Just return the title text, nothing else.",
					prompt),
			}},
		}},
		SystemInstruction: &Content{
			Parts: []Part{{Text: titleSystemInstruction}},
		},
	}

	var resp generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.defaultModelName())
	if err := c.postWithRetry(ctx, url, reqBody, &resp); err != nil {
		return "", err
	}

	title := strings.ReplaceAll(strings.TrimSpace(resp.text()), `"`, "")
	if title == "" {
		return "", ErrEmptyResponse
	}
	return title, nil
}

// postWithRetry performs a one-shot POST with rate limiting and exponential
// backoff on transient failures. 4xx responses other than 429 never retry.
func (c *Client) postWithRetry(ctx context.Context, url string, body any, out *generateResponse) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt)
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := c.handleErrorResponse(resp.StatusCode, raw)
			if !retryable(resp.StatusCode) {
				return apiErr
			}
			lastErr = apiErr
			continue
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	return lastErr
}

// handleErrorResponse converts an error status and body into a typed error.
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var parsed generateResponse
	msg := strings.TrimSpace(string(body))
	code := ""
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		msg = parsed.Error.Message
		code = parsed.Error.Status
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, msg)
	default:
		return &APIError{Status: status, Code: code, Message: msg}
	}
}

// retryable reports whether a status code is worth retrying.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// calculateBackoff returns the exponential backoff delay with jitter
// for the given attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	// Jitter avoids thundering-herd retries.
	jitter := time.Duration(rand.Int63n(int64(delay) / 4))
	return delay + jitter
}
