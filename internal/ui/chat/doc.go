// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The view is a Bubble Tea model wired to the session store, settings
// store, and generation controller. Streaming responses land in the
// session store from the controller's goroutine; the view re-reads the
// store on a capped 30fps tick instead of re-rendering per fragment.
package chat
