// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for steward.
package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/config"
	"github.com/jeranaias/steward-tui/internal/store"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdStatus
	CmdLogout
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	ConfigPath string
	Verbose    bool
}

// Parse reads os.Args and picks the command to run. Unknown commands
// fall through to help.
func Parse() (Command, Args) {
	args := Args{}
	rest := []string{}

	argv := os.Args[1:]
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--config", "-c":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case "--verbose", "-v":
			args.Verbose = true
		case "--help", "-h":
			return CmdHelp, args
		case "--version":
			return CmdVersion, args
		default:
			rest = append(rest, argv[i])
		}
	}

	if len(rest) == 0 {
		return CmdTUI, args
	}
	switch rest[0] {
	case "tui":
		return CmdTUI, args
	case "status":
		return CmdStatus, args
	case "logout":
		return CmdLogout, args
	case "config":
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", rest[0])
		return CmdHelp, args
	}
}

// HandleVersion prints build information.
func HandleVersion() {
	fmt.Printf("steward %s (%s, %s, %s/%s)\n",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(`steward - church administration console

Usage:
  steward [tui]        Start the terminal interface (default)
  steward status       Show the local session and lockout state
  steward logout       Clear the local session without starting the UI
  steward config       Show the resolved configuration
  steward version      Show version information

Flags:
  -c, --config PATH    Use an alternate config file
  -v, --verbose        Debug logging
  -h, --help           Show this help
`)
}

// HandleStatus prints whether a session record exists and whether the
// login lockout is armed.
func HandleStatus(cfg *config.Config) error {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	logger := zerolog.Nop()

	sessions, err := store.OpenSessionStore(dir, logger)
	if err != nil {
		return err
	}
	sess, err := sessions.Load()
	switch {
	case errors.Is(err, store.ErrNoSession):
		fmt.Println("Session:  none")
	case err != nil:
		return err
	default:
		idle := time.Since(sess.LastActivity).Round(time.Second)
		state := "active"
		if idle >= cfg.SessionTimeout() {
			state = "expired"
		}
		fmt.Printf("Session:  %s (%s, idle %s)\n", state, sess.Identity.Email, idle)
	}

	db, err := store.OpenDB(dir, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	failures, err := db.ConsecutiveFailures()
	if err != nil {
		return err
	}
	fmt.Printf("Failures: %d consecutive\n", failures)

	deadline, locked, err := db.LockoutDeadline()
	if err != nil {
		return err
	}
	if locked && time.Now().Before(deadline) {
		fmt.Printf("Lockout:  until %s\n", deadline.Format(time.RFC3339))
	} else {
		fmt.Println("Lockout:  none")
	}
	return nil
}

// HandleLogout clears the local session record. Other running steward
// instances watching the file will log themselves out.
func HandleLogout(cfg *config.Config) error {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	sessions, err := store.OpenSessionStore(dir, zerolog.Nop())
	if err != nil {
		return err
	}
	if err := sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Session cleared.")
	return nil
}

// HandleConfig prints the resolved configuration values.
func HandleConfig(cfg *config.Config) error {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "api.base_url:          %s\n", cfg.API.BaseURL)
	fmt.Fprintf(&b, "api.request_timeout:   %s\n", cfg.RequestTimeout())
	fmt.Fprintf(&b, "api.heartbeat:         %s\n", cfg.HeartbeatInterval())
	fmt.Fprintf(&b, "session.timeout:       %s\n", cfg.SessionTimeout())
	fmt.Fprintf(&b, "session.warning_lead:  %s\n", cfg.WarningLead())
	fmt.Fprintf(&b, "lockout.max_attempts:  %d\n", cfg.Lockout.MaxAttempts)
	fmt.Fprintf(&b, "lockout.cooldown:      %s\n", cfg.LockoutCooldown())
	fmt.Fprintf(&b, "storage.data_dir:      %s\n", dir)
	fmt.Fprintf(&b, "logging.level:         %s\n", cfg.Logging.Level)
	fmt.Print(b.String())
	return nil
}
