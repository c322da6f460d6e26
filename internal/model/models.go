// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MODEL CATALOG
// =============================================================================

// DefaultModel is the generation model used when settings carry no override.
const DefaultModel = "gemini-3-flash-preview"

// ModelInfo describes a selectable generation model.
type ModelInfo struct {
	ID          string
	DisplayName string
	Description string
}

// KnownModels lists the models offered in the settings picker. The list is
// advisory: settings accept any non-empty model ID so new server-side models
// work without a client update.
var KnownModels = []ModelInfo{
	{
		ID:          "gemini-3-flash-preview",
		DisplayName: "Gemini 3 Flash",
		Description: "Fast, balanced model for everyday chat",
	},
	{
		ID:          "gemini-3-pro-preview",
		DisplayName: "Gemini 3 Pro",
		Description: "Strongest reasoning, slower and pricier",
	},
	{
		ID:          "gemini-2.5-flash",
		DisplayName: "Gemini 2.5 Flash",
		Description: "Previous generation fast model",
	},
}

// SuggestionPrompts seeds the empty-session welcome screen.
var SuggestionPrompts = []string{
	"Explain quantum computing in simple terms",
	"Write a Python script to organize files",
	"Draft a product requirements document",
	"Review this code for potential bugs",
}
