// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/delta-tui/internal/model"
)

func sampleSession() *model.Session {
	sess := model.NewSession(model.ModeCode, model.PersonaDeveloper)
	sess.Title = "Debug Session"
	sess.Append(model.NewUserMessage("why is this nil", sess.Mode))
	reply := model.NewMessage(model.RoleAssistant, "You forgot to initialize the map.", sess.Mode)
	reply.Rating = model.RatingUp
	sess.Append(reply)
	return sess
}

func TestMarkdownExport(t *testing.T) {
	sess := sampleSession()
	out, err := NewMarkdownExporter(nil).Export(sess)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content := string(out)

	for _, want := range []string{
		"title: Debug Session",
		"mode: Code",
		"persona: Developer",
		"# Debug Session",
		"### You",
		"### Delta AI",
		"why is this nil",
		"You forgot to initialize the map.",
		"*User feedback: up*",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	opts := &Options{OutputDir: ".", IncludeMetadata: false, IncludeTimestamps: false}
	out, err := NewMarkdownExporter(opts).Export(sampleSession())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content := string(out)
	if strings.Contains(content, "---\ntitle:") {
		t.Error("frontmatter present despite IncludeMetadata=false")
	}
	if strings.Contains(content, "<sub>") {
		t.Error("timestamps present despite IncludeTimestamps=false")
	}
}

func TestMarkdownExportEmptySession(t *testing.T) {
	sess := model.NewSession(model.ModeChat, model.PersonaGeneral)
	if _, err := NewMarkdownExporter(nil).Export(sess); err == nil {
		t.Error("expected error for session with no messages")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil session")
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	sess := sampleSession()
	out, err := NewJSONExporter(nil).Export(sess)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded model.Session
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if decoded.ID != sess.ID || decoded.Title != sess.Title {
		t.Error("identity fields lost")
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(decoded.Messages))
	}
	if decoded.Messages[1].Rating != model.RatingUp {
		t.Error("rating lost in export")
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleSession(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".md") {
		t.Errorf("unexpected output path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "# Debug Session") {
		t.Error("file content missing title")
	}
	// The filename derives from the title.
	if !strings.Contains(path, "Debug_Session") {
		t.Errorf("filename %q does not include sanitized title", path)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Debug Session", "Debug_Session"},
		{"a/b\\c:d", "abcd"},
		{"", "untitled"},
		{"!!!", "untitled"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
