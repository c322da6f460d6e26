// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/jeranaias/delta-tui/internal/model"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient("test-key", logger,
		WithBaseURL(url),
		WithMaxRetries(2),
		WithRateLimit(rate.NewLimiter(rate.Inf, 1)))
}

// sseEvent formats a single data-only SSE event.
func sseEvent(candidateText, finishReason string) string {
	finish := ""
	if finishReason != "" {
		finish = fmt.Sprintf(`,"finishReason":%q`, finishReason)
	}
	return fmt.Sprintf(
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":%q}],\"role\":\"model\"}%s}]}\n\n",
		candidateText, finish)
}

func TestSSEReader(t *testing.T) {
	input := "event: message\ndata: hello\n\ndata: world\ndata: again\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	event, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if event != "message" || string(data) != "hello" {
		t.Errorf("first event = (%q, %q)", event, data)
	}

	_, data, err = reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if string(data) != "world\nagain" {
		t.Errorf("multi-line data = %q", data)
	}

	if _, _, err := reader.ReadEvent(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestSSEReaderDataBeforeEOF(t *testing.T) {
	// Final event without trailing blank line is still delivered.
	reader := NewSSEReader(strings.NewReader("data: tail"))
	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("data = %q", data)
	}
}

func TestStreamResponseFragmentsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing API key header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseEvent("Hel", ""))
		io.WriteString(w, sseEvent("lo ", ""))
		io.WriteString(w, sseEvent("world", "STOP"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	var fragments []string
	err := client.StreamResponse(context.Background(), "hi", nil,
		model.PersonaGeneral, model.ModeChat,
		Params{Model: model.DefaultModel, Temperature: 0.7, MaxTokens: 2048},
		func(fragment string) { fragments = append(fragments, fragment) })
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}

	want := []string{"Hel", "lo ", "world"}
	if len(fragments) != len(want) {
		t.Fatalf("got %d fragments, want %d", len(fragments), len(want))
	}
	for i := range want {
		if fragments[i] != want[i] {
			t.Errorf("fragment %d = %q, want %q", i, fragments[i], want[i])
		}
	}
}

func TestStreamResponseSendsHistoryAndInstruction(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseEvent("ok", "STOP"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	history := []*model.Message{
		model.NewUserMessage("first question", model.ModeChat),
		model.NewMessage(model.RoleAssistant, "first answer", model.ModeChat),
	}

	err := client.StreamResponse(context.Background(), "followup", history,
		model.PersonaDeveloper, model.ModeCode,
		Params{Temperature: 0.7}, func(string) {})
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}

	// History roles map to user/model, prompt is the final user turn.
	for _, want := range []string{
		`"role":"user"`, `"role":"model"`,
		"first question", "first answer", "followup",
		model.SystemPrompts[model.PersonaDeveloper],
		model.ModeInstructions[model.ModeCode],
		`"topP":0.95`,
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q", want)
		}
	}
}

func TestStreamResponseHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":401,"message":"bad key","status":"UNAUTHENTICATED"}}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	err := client.StreamResponse(context.Background(), "hi", nil,
		model.PersonaGeneral, model.ModeChat, Params{}, func(string) {})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestStreamResponseMidStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseEvent("partial", ""))
		io.WriteString(w, "data: {\"error\":{\"code\":500,\"message\":\"boom\",\"status\":\"INTERNAL\"}}\n\n")
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	var got string
	err := client.StreamResponse(context.Background(), "hi", nil,
		model.PersonaGeneral, model.ModeChat, Params{},
		func(fragment string) { got += fragment })

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if streamErr.Partial != "partial" {
		t.Errorf("partial = %q", streamErr.Partial)
	}
	if got != "partial" {
		t.Errorf("fragments delivered before error = %q", got)
	}
}

func TestStreamResponseNotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient("", logger)
	err := client.StreamResponse(context.Background(), "hi", nil,
		model.PersonaGeneral, model.ModeChat, Params{}, func(string) {})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(raw), "max 5 words") {
			t.Error("title prompt missing instruction")
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"\"Rust Borrow Checker\"\n"}],"role":"model"}}]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	title, err := client.GenerateTitle(context.Background(), "why does rust fight me")
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	// Quotes and whitespace are stripped.
	if title != "Rust Borrow Checker" {
		t.Errorf("title = %q", title)
	}
}

func TestGenerateTitleRetriesServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Recovered Title"}],"role":"model"}}]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	title, err := client.GenerateTitle(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "Recovered Title" {
		t.Errorf("title = %q", title)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestGenerateTitleNoRetryOnAuthError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.GenerateTitle(context.Background(), "prompt")
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", attempts)
	}
}

func TestGenerateTitleEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if _, err := client.GenerateTitle(context.Background(), "prompt"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}
