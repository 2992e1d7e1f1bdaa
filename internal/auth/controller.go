// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the client-side authentication lifecycle: login,
// restore, inactivity timeout with a countdown warning, forced logout
// on credential rejection, and the login lockout policy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/steward-tui/internal/api"
	"github.com/jeranaias/steward-tui/internal/model"
	"github.com/jeranaias/steward-tui/internal/session"
	"github.com/jeranaias/steward-tui/internal/store"
)

// =============================================================================
// STATES AND EVENTS
// =============================================================================

// State is the authentication lifecycle state.
type State int

const (
	// StateUnauthenticated means no credential is held.
	StateUnauthenticated State = iota

	// StateAuthenticated means a credential is held and the inactivity
	// timer is running.
	StateAuthenticated

	// StateWarningActive means the session is still live but inside the
	// warning window before forced logout.
	StateWarningActive
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateWarningActive:
		return "warning"
	default:
		return "unauthenticated"
	}
}

// Event is a lifecycle notification pushed to the UI.
type Event interface{ authEvent() }

// LoggedInEvent fires after a successful login or restore.
type LoggedInEvent struct {
	Identity model.Identity
	Greeting string
	Restored bool
}

// WarningEvent fires every timer tick while the warning window is
// active, carrying the whole seconds left before forced logout.
type WarningEvent struct {
	SecondsRemaining int
}

// LoggedOutEvent fires once per logout, voluntary or forced.
type LoggedOutEvent struct {
	Reason  model.LogoutReason
	Message string
}

func (LoggedInEvent) authEvent()  {}
func (WarningEvent) authEvent()   {}
func (LoggedOutEvent) authEvent() {}

// ErrLockedOut rejects a login attempt while the lockout cooldown is
// running. No network request is made.
type ErrLockedOut struct {
	Remaining time.Duration
}

func (e *ErrLockedOut) Error() string {
	secs := int(e.Remaining.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Too many failed attempts. Try again in %d seconds.", secs)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// touchRate bounds how often activity is flushed to the session file.
// The in-memory timer resets on every event regardless.
var touchRate = rate.Every(5 * time.Second)

// Options configures a Controller.
type Options struct {
	Client    *api.Client
	Sessions  *store.SessionStore
	DB        *store.DB
	Lockout   *Lockout
	Greeter   *Greeter
	Heartbeat *Heartbeat
	Timer     *session.Timer
	Logger    zerolog.Logger

	// Notify receives lifecycle events. Called from controller and
	// timer goroutines; implementations must be safe for that.
	Notify func(Event)
}

// Controller coordinates the session stores, the inactivity timer, the
// API client and the lockout guard into one authentication lifecycle.
// It implements api.CredentialSource so the client reads the live
// credential and reports request activity back.
type Controller struct {
	client    *api.Client
	sessions  *store.SessionStore
	db        *store.DB
	lockout   *Lockout
	greeter   *Greeter
	heartbeat *Heartbeat
	timer     *session.Timer
	notify    func(Event)
	logger    zerolog.Logger

	touchLimiter *rate.Limiter

	mu      sync.Mutex
	state   State
	current model.Session
	warning model.WarningState
	ending  bool
}

// NewController wires a controller from its parts. The timer callbacks
// and credential gate are claimed here; callers should not set them.
func NewController(opts Options) *Controller {
	c := &Controller{
		client:       opts.Client,
		sessions:     opts.Sessions,
		db:           opts.DB,
		lockout:      opts.Lockout,
		greeter:      opts.Greeter,
		heartbeat:    opts.Heartbeat,
		timer:        opts.Timer,
		notify:       opts.Notify,
		logger:       opts.Logger.With().Str("component", "auth").Logger(),
		touchLimiter: rate.NewLimiter(touchRate, 1),
	}
	c.timer.SetCallbacks(c.handleWarning, c.handleTimeout)
	return c
}

// Credential returns the live bearer credential, or "" when logged
// out. Part of api.CredentialSource.
func (c *Controller) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnauthenticated {
		return ""
	}
	return c.current.Credential
}

// TouchActivity records server-confirmed activity. Part of
// api.CredentialSource; the client calls it after every successful
// authenticated response.
func (c *Controller) TouchActivity() {
	c.RecordActivity()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the logged-in identity and whether one is held.
func (c *Controller) Identity() (model.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnauthenticated {
		return model.Identity{}, false
	}
	return c.current.Identity, true
}

// Warning returns the current warning countdown state.
func (c *Controller) Warning() model.WarningState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}

// =============================================================================
// LOGIN AND RESTORE
// =============================================================================

// Login authenticates with the server. While the lockout cooldown is
// running it fails immediately with *ErrLockedOut and no request is
// sent. Failure counting and server rate limits feed the lockout.
func (c *Controller) Login(ctx context.Context, email, password string) (model.Identity, error) {
	if ok, remaining := c.lockout.Allowed(); !ok {
		return model.Identity{}, &ErrLockedOut{Remaining: remaining}
	}

	result, err := c.client.Login(ctx, email, password)
	if err != nil {
		c.recordLoginError(err)
		return model.Identity{}, err
	}

	c.lockout.RecordSuccess()

	sess := model.Session{
		Identity:     result.Identity,
		Credential:   result.Token,
		LastActivity: time.Now(),
	}
	if err := c.sessions.Save(sess); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist session")
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.current = sess
	c.warning = model.WarningState{}
	c.mu.Unlock()

	c.timer.Start()
	c.heartbeat.Start()

	greeting := c.greeter.Greet(result.Identity)
	if err := c.db.LogEvent("login", result.Identity.Email); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to log login event")
	}
	c.logger.Info().
		Int64("identity", result.Identity.ID).
		Str("role", string(result.Identity.Role)).
		Msg("Logged in")

	c.emit(LoggedInEvent{Identity: result.Identity, Greeting: greeting})
	return result.Identity, nil
}

func (c *Controller) recordLoginError(err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return
	}
	switch apiErr.Kind {
	case api.KindRateLimited:
		c.lockout.ApplyServerLockout(apiErr.RetryAfter)
	case api.KindNetwork, api.KindTimeout:
		// Unreachable servers do not count against the attempt limit.
	default:
		count, locked := c.lockout.RecordFailure()
		if locked {
			c.logger.Warn().Int("failures", count).Msg("Lockout armed")
		}
	}
}

// Restore adopts a persisted session from a previous run. A record
// whose inactivity window already elapsed is discarded rather than
// resumed. Restore with no usable record leaves the controller
// unauthenticated and returns false.
func (c *Controller) Restore() (model.Identity, bool) {
	sess, err := c.sessions.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoSession) {
			c.logger.Warn().Err(err).Msg("Failed to load session")
		}
		return model.Identity{}, false
	}

	idle := time.Since(sess.LastActivity)
	if idle >= c.timer.Timeout() {
		c.logger.Info().Dur("idle", idle).Msg("Persisted session expired, discarding")
		if err := c.sessions.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear stale session")
		}
		return model.Identity{}, false
	}

	sess.LastActivity = time.Now()
	if err := c.sessions.Save(sess); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to refresh restored session")
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.current = sess
	c.warning = model.WarningState{}
	c.mu.Unlock()

	c.timer.Start()
	c.heartbeat.Start()

	greeting := c.greeter.Greet(sess.Identity)
	c.logger.Info().Int64("identity", sess.Identity.ID).Msg("Session restored")
	c.emit(LoggedInEvent{Identity: sess.Identity, Greeting: greeting, Restored: true})
	return sess.Identity, true
}

// =============================================================================
// ACTIVITY
// =============================================================================

// RecordActivity resets the inactivity window and dismisses an active
// warning. The persisted last-activity timestamp is flushed at most
// once per touch interval.
func (c *Controller) RecordActivity() {
	c.mu.Lock()
	if c.state == StateUnauthenticated {
		c.mu.Unlock()
		return
	}
	c.state = StateAuthenticated
	c.warning = model.WarningState{}
	c.current.LastActivity = time.Now()
	flush := c.touchLimiter.Allow()
	c.mu.Unlock()

	c.timer.Reset()
	if flush {
		if err := c.sessions.Touch(time.Now()); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to touch session file")
		}
	}
}

// StayLoggedIn answers the warning countdown affirmatively.
func (c *Controller) StayLoggedIn() {
	c.RecordActivity()
	c.logger.Info().Msg("Session extended from warning")
}

// =============================================================================
// LOGOUT
// =============================================================================

// Logout ends the session at the user's request. The server is told on
// a best-effort basis; local state is torn down regardless.
func (c *Controller) Logout() {
	c.endSession(model.LogoutUser, "")
}

// HandleUnauthorized is wired into the API client's 401 hook. The
// first rejected response forces a logout; concurrent rejections from
// in-flight requests collapse into that one teardown.
func (c *Controller) HandleUnauthorized() {
	c.endSession(model.LogoutUnauthorized, "Your session has expired. Please log in again.")
}

// HandleExternalLogout is wired to the session file watcher. Another
// steward instance already removed the record, so only in-memory state
// is torn down here.
func (c *Controller) HandleExternalLogout() {
	c.endSession(model.LogoutExternal, "You were logged out from another window.")
}

func (c *Controller) handleTimeout() {
	c.endSession(model.LogoutTimeout, "You were logged out due to inactivity.")
}

func (c *Controller) handleWarning(secondsLeft int) {
	c.mu.Lock()
	if c.state == StateUnauthenticated {
		c.mu.Unlock()
		return
	}
	c.state = StateWarningActive
	c.warning = model.WarningState{Visible: true, SecondsRemaining: secondsLeft}
	c.mu.Unlock()

	c.emit(WarningEvent{SecondsRemaining: secondsLeft})
}

// endSession is the single exit path for every logout reason. Exactly
// one caller per episode performs the teardown; the rest return.
func (c *Controller) endSession(reason model.LogoutReason, message string) {
	c.mu.Lock()
	if c.state == StateUnauthenticated || c.ending {
		c.mu.Unlock()
		return
	}
	c.ending = true
	identity := c.current.Identity
	c.mu.Unlock()

	c.timer.Stop()
	c.heartbeat.Stop()

	switch reason {
	case model.LogoutUser, model.LogoutTimeout, model.LogoutUnauthorized:
		// Tell the server while the credential is still readable. On a
		// 401-forced logout the attempt may bounce off the same rejection;
		// the ending flag keeps that second 401 from re-entering here. An
		// externally cleared session was already revoked elsewhere.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := c.client.Logout(ctx); err != nil {
			c.logger.Debug().Err(err).Msg("Server logout failed")
		}
		cancel()
	}

	c.mu.Lock()
	c.state = StateUnauthenticated
	c.current = model.Session{}
	c.warning = model.WarningState{}
	c.ending = false
	c.mu.Unlock()

	if reason != model.LogoutExternal {
		if err := c.sessions.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear session file")
		}
	}
	c.greeter.Forget(identity)
	c.client.ClearCache()
	if err := c.db.LogEvent("logout", string(reason)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to log logout event")
	}

	c.logger.Info().
		Int64("identity", identity.ID).
		Str("reason", string(reason)).
		Msg("Logged out")
	c.emit(LoggedOutEvent{Reason: reason, Message: message})
}

func (c *Controller) emit(ev Event) {
	if c.notify != nil {
		c.notify(ev)
	}
}
