// steward TUI - A terminal console for church administration.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/steward-tui/internal/api"
	"github.com/jeranaias/steward-tui/internal/auth"
	"github.com/jeranaias/steward-tui/internal/cli"
	"github.com/jeranaias/steward-tui/internal/config"
	"github.com/jeranaias/steward-tui/internal/logging"
	"github.com/jeranaias/steward-tui/internal/session"
	"github.com/jeranaias/steward-tui/internal/store"
	"github.com/jeranaias/steward-tui/internal/ui"
	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}

	switch cmd {
	case cli.CmdTUI:
		if err := runTUI(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdStatus:
		if err := cli.HandleStatus(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdLogout:
		if err := cli.HandleLogout(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	default:
		cli.HandleHelp()
	}
}

// runTUI wires the stores, the API client, the auth controller and the
// bubbletea program, then blocks until the UI exits.
func runTUI(cfg *config.Config) error {
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = filepath.Join(dataDir, "steward.log")
	}
	logger, closeLog, err := logging.Open(logPath, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	sessions, err := store.OpenSessionStore(dataDir, logger)
	if err != nil {
		return err
	}
	db, err := store.OpenDB(dataDir, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	relay := ui.NewRelay()

	var ctrl *auth.Controller
	client := api.NewClient(cfg.API.BaseURL, credentialProxy{&ctrl},
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithPublicPaths(cfg.API.PublicPaths),
		api.WithLogger(logger),
		api.OnUnauthorized(func() {
			if ctrl != nil {
				ctrl.HandleUnauthorized()
			}
		}),
	)

	timer := session.NewTimer(cfg.SessionTimeout(), cfg.WarningLead(),
		session.WithCredentialGate(func() bool {
			return ctrl != nil && ctrl.Credential() != ""
		}),
	)

	ctrl = auth.NewController(auth.Options{
		Client:    client,
		Sessions:  sessions,
		DB:        db,
		Lockout:   auth.NewLockout(db, cfg.Lockout.MaxAttempts, cfg.LockoutCooldown(), logger),
		Greeter:   auth.NewGreeter(db, logger),
		Heartbeat: auth.NewHeartbeat(client, cfg.HeartbeatInterval(), logger),
		Timer:     timer,
		Logger:    logger,
		Notify:    relay.Notify,
	})

	tracker := session.NewTracker(ctrl.RecordActivity)
	defer tracker.Close()

	watcher, err := store.WatchSessionFile(sessions.Path(), ctrl.HandleExternalLogout, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Session watcher unavailable")
	} else {
		defer watcher.Close()
	}

	monitor, err := api.NewConnectivityMonitor(cfg.API.BaseURL, relay.NotifyConnectivity, logger)
	if err == nil {
		monitor.Start()
		defer monitor.Stop()
	}

	term := styles.DetectTerminal()
	logger.Debug().
		Bool("dark", term.IsDark).
		Bool("truecolor", term.HasTrueColor).
		Msg("Terminal detected")

	app := ui.NewApp(ctrl, tracker, client, cfg.Session.WarningLeadSecs, logger)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Adopt a previous run's session before the first frame. The relay
	// buffers the resulting event until the program is attached and
	// delivers it once Run is underway.
	ctrl.Restore()
	relay.Attach(p)

	logger.Info().Str("version", Version).Msg("steward starting")
	_, err = p.Run()
	return err
}

// credentialProxy defers CredentialSource calls until the controller
// exists; the client and controller reference each other.
type credentialProxy struct {
	ctrl **auth.Controller
}

func (p credentialProxy) Credential() string {
	if *p.ctrl == nil {
		return ""
	}
	return (*p.ctrl).Credential()
}

func (p credentialProxy) TouchActivity() {
	if *p.ctrl == nil {
		return
	}
	(*p.ctrl).TouchActivity()
}
