// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package genai provides the Gemini API text-generation client.
//
// The client exposes two operations:
//
//   - StreamResponse: a streaming generation call that delivers text
//     fragments to a callback as they arrive over SSE
//   - GenerateTitle: a one-shot call that summarizes a first prompt into
//     a short session title
//
// Requests are paced by a token-bucket rate limiter and one-shot calls
// retry transient failures with exponential backoff. Streaming calls do
// not retry: a severed stream surfaces as an error so the caller can take
// its failure path.
package genai
