// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcherFiresOnRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SessionFileName)
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cleared := make(chan struct{}, 1)
	sw, err := WatchSessionFile(path, func() {
		select {
		case cleared <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("WatchSessionFile: %v", err)
	}
	defer sw.Close()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-cleared:
	case <-time.After(3 * time.Second):
		t.Fatal("removal never reported")
	}
}

func TestWatcherIgnoresRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SessionFileName)
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cleared := make(chan struct{}, 1)
	sw, err := WatchSessionFile(path, func() {
		select {
		case cleared <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("WatchSessionFile: %v", err)
	}
	defer sw.Close()

	// An atomic rewrite keeps the file present throughout.
	if err := writeFileAtomic(path, []byte(`{"v":2}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-cleared:
		t.Fatal("rewrite reported as removal")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SessionFileName)
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "steward.log")
	if err := os.WriteFile(other, []byte("log"), 0o600); err != nil {
		t.Fatal(err)
	}

	cleared := make(chan struct{}, 1)
	sw, err := WatchSessionFile(path, func() {
		select {
		case cleared <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("WatchSessionFile: %v", err)
	}
	defer sw.Close()

	if err := os.Remove(other); err != nil {
		t.Fatal(err)
	}

	select {
	case <-cleared:
		t.Fatal("unrelated file removal reported")
	case <-time.After(600 * time.Millisecond):
	}
}
