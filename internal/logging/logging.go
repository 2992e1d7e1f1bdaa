// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging constructs the structured logger used across steward.
//
// The TUI owns the terminal, so log output always goes to a file under
// the data directory. Components derive child loggers with a component
// field rather than holding globals.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Open creates the application logger writing to the given path.
// The returned closer releases the underlying file.
func Open(path, level string) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	logger := zerolog.New(f).Level(parseLevel(level)).With().Timestamp().Logger()
	return logger, f.Close, nil
}

// parseLevel maps a config level string to a zerolog level.
// Unknown values fall back to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
