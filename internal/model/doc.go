// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat sessions, messages, response modes, and personas.
//
// # Key Types
//
// Session:
//   - A persisted conversation thread with its own mode, persona, and
//     ordered message history
//
// Message:
//   - A single user or assistant turn; an assistant message with empty
//     content is still pending (streaming has not delivered a fragment yet)
//
// Mode and Persona:
//   - Enumerated response-formatting and behavioral directives with their
//     instruction text held in lookup tables
//
// # Usage
//
//	sess := model.NewSession(model.ModeChat, model.PersonaGeneral)
//	sess.Append(model.NewUserMessage("Hello", sess.Mode))
//	msg := model.NewAssistantMessage(sess.Mode)
//	sess.Append(msg)
package model
