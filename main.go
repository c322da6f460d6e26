// delta-tui - A terminal interface for streaming AI chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/delta-tui/internal/config"
	"github.com/jeranaias/delta-tui/internal/controller"
	"github.com/jeranaias/delta-tui/internal/genai"
	"github.com/jeranaias/delta-tui/internal/session"
	"github.com/jeranaias/delta-tui/internal/settings"
	"github.com/jeranaias/delta-tui/internal/storage"
	"github.com/jeranaias/delta-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "config file path (default ~/.delta/config.toml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("delta-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Configuration
	if configPath == "" {
		var err error
		if configPath, err = config.Path(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logging goes to a file: stdout belongs to the TUI.
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	logger.Info("starting delta-tui", "version", Version)

	// Persistence
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	// Stores and collaborators
	userSettings := settings.NewStore(store, logger)
	sessions := session.NewStore(store, logger)

	clientOpts := []genai.Option{genai.WithDefaultModel(cfg.API.DefaultModel)}
	if cfg.API.BaseURL != "" {
		clientOpts = append(clientOpts, genai.WithBaseURL(cfg.API.BaseURL))
	}
	client := genai.NewClient(cfg.API.Key, logger, clientOpts...)
	if !client.IsConfigured() {
		logger.Warn("no API key configured; set DELTA_API_KEY or api.key in config")
	}

	ctrl := controller.New(sessions, client, userSettings, logger)

	// Config hot reload: API key changes apply without a restart.
	watcher, err := config.NewWatcher(configPath, config.DefaultWatchDebounce,
		func(next *config.Config) {
			client.SetAPIKey(next.API.Key)
		}, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		if err := watcher.Watch(); err != nil {
			logger.Warn("config watch failed", "error", err)
		}
		defer watcher.Close()
	}

	// TUI
	view := chat.New(sessions, userSettings, ctrl, logger)
	program := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// newLogger opens the log file and builds the application logger.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}
