// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the in-memory collection of conversation sessions.
//
// The Store holds the ordered session list, the active-session selection,
// and search filtering. Every mutation persists the full collection through
// the injected Persister before returning; persistence failures are logged
// and never surfaced to callers.
//
// New sessions insert at the front of the collection. Deleting the active
// session activates the new front, or clears the selection when the
// collection becomes empty.
package session
