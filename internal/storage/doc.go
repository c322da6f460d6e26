// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides snapshot persistence for delta-tui.
//
// Sessions and settings are persisted to a single SQLite database.
// Sessions are stored whole-snapshot: every save replaces the sessions
// table inside one transaction, so a reader always sees a complete,
// consistent snapshot. Settings live in a small key/value table.
//
// # Failure Model
//
// Loads are fail-silent: a missing database yields an empty snapshot and
// individually corrupt rows are skipped, never crashing startup. Saves
// return errors so callers can surface persistence failures.
//
// # Usage
//
//	store, err := storage.Open(filepath.Join(dir, "delta.db"), logger)
//	if err != nil { ... }
//	defer store.Close()
//
//	sessions, _ := store.LoadSessions()
//	err = store.SaveSessions(sessions)
package storage
