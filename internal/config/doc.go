// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for delta-tui.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. A file watcher supports hot reload: edits to the config file
// are debounced and delivered to a callback without restarting the app.
//
// Configuration file location (in order of precedence):
//   - $DELTA_CONFIG
//   - ~/.delta/config.toml
//   - Built-in defaults
package config
