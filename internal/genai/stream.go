// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/delta-tui/internal/model"
)

// STREAMING: Robust SSE parsing with error handling

// MaxChunkSize is the maximum allowed size for a single SSE chunk (64KB)
const MaxChunkSize = 64 * 1024

// StreamCallback receives one text fragment per streamed event.
// Fragments arrive in order; the callback runs before the next event is read.
type StreamCallback func(fragment string)

// StreamError wraps a mid-stream failure, preserving any partial content
// received before the error.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReaderSize(r, MaxChunkSize),
	}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type and data. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// If we have data, return it before EOF
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		// Trim trailing newline and carriage return
		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		// Parse field
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			dataLines = append(dataLines, data)
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAMING GENERATION
// =============================================================================

// StreamResponse performs a streaming generation request. The history is
// the conversation so far, prompt is the new user turn, and the persona and
// mode select the system instruction. The callback is invoked once per text
// fragment, in arrival order. Streaming requests never retry: a severed
// connection surfaces as an error.
func (c *Client) StreamResponse(
	ctx context.Context,
	prompt string,
	history []*model.Message,
	persona model.Persona,
	mode model.Mode,
	params Params,
	callback StreamCallback,
) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	modelName := params.Model
	if modelName == "" {
		modelName = c.defaultModelName()
	}

	contents := make([]Content, 0, len(history)+1)
	for _, msg := range history {
		role := "model"
		if msg.Role == model.RoleUser {
			role = "user"
		}
		contents = append(contents, Content{
			Role:  role,
			Parts: []Part{{Text: msg.Content}},
		})
	}
	contents = append(contents, Content{
		Role:  "user",
		Parts: []Part{{Text: prompt}},
	})

	reqBody := generateRequest{
		Contents: contents,
		SystemInstruction: &Content{
			Parts: []Part{{Text: model.SystemInstruction(persona, mode)}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:     params.Temperature,
			TopP:            defaultTopP,
			MaxOutputTokens: params.MaxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamer.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads and processes the SSE stream.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)
	var received bytes.Buffer

	for {
		select {
		case <-ctx.Done():
			return &StreamError{Partial: received.String(), Err: ctx.Err()}
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &StreamError{Partial: received.String(), Err: err}
		}

		var chunk generateResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks
			continue
		}
		if chunk.Error != nil {
			return &StreamError{
				Partial: received.String(),
				Err: &APIError{
					Status:  chunk.Error.Code,
					Code:    chunk.Error.Status,
					Message: chunk.Error.Message,
				},
			}
		}

		if text := chunk.text(); text != "" {
			received.WriteString(text)
			callback(text)
		}

		if chunk.finished() {
			return nil
		}
	}
}
