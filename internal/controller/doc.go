// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller orchestrates one generation cycle at a time.
//
// A cycle moves through the states
//
//	Idle -> AwaitingSession -> Streaming -> Finalizing -> Idle
//
// and always returns to Idle, success or failure. On send the controller
// appends the user message and a pending assistant message, streams
// fragments from the generation client into the assistant message as
// idempotent full-content replacements, and finalizes by either triggering
// title generation (first exchange only) or replacing the assistant
// message with a fixed error string.
//
// At most one cycle may be in flight process-wide: a Send while Streaming
// is rejected without touching any session.
package controller
