// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/audit"
	"github.com/jeranaias/storefront-tui/internal/clock"
	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/prefs"
)

// DefaultLogoutTimeout bounds the server-side logout call. Local state is
// cleared regardless of how that call ends.
const DefaultLogoutTimeout = 5 * time.Second

var (
	// ErrAlreadyLoggedIn is returned by Login while a session is active.
	ErrAlreadyLoggedIn = errors.New("session: already logged in")

	// ErrNotLoggedIn is returned by operations that need an active session.
	ErrNotLoggedIn = errors.New("session: not logged in")
)

// Reason records why a session ended.
type Reason string

const (
	// ReasonUser is an explicit logout (menu, "Logout Now", quit).
	ReasonUser Reason = "user"
	// ReasonTimeout is an idle expiry.
	ReasonTimeout Reason = "timeout"
)

// Backend is the part of the API client the controller needs.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	Logout(ctx context.Context) error
}

// Preferences is the persisted suppression preference.
type Preferences interface {
	SuppressIdleWarning() bool
	SetSuppressIdleWarning(v bool) error
	OnChange(fn func(prefs.Prefs)) (cancel func())
}

// Auditor records lifecycle events.
type Auditor interface {
	Record(ctx context.Context, sessionID string, typ audit.EventType, detail string) (audit.Event, error)
}

// Hooks are notified of session events. They run on timer goroutines and
// must not block; a Bubble Tea program forwards them with Program.Send.
type Hooks struct {
	OnWarning func(secondsRemaining int)
	OnTick    func(secondsRemaining int)
	OnExpired func()
	OnLogout  func(Reason, error)
}

// Controller manages at most one authenticated session at a time.
type Controller struct {
	backend       Backend
	prefs         Preferences
	auditor       Auditor
	idleCfg       idle.Config
	clock         clock.Clock
	log           *log.Logger
	source        idle.ActivitySource
	logoutTimeout time.Duration
	hooks         Hooks

	mu        sync.Mutex
	cur       *Session
	stopPrefs func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithIdleConfig sets the monitor timing for new sessions.
func WithIdleConfig(cfg idle.Config) Option {
	return func(c *Controller) { c.idleCfg = cfg }
}

// WithAuditor records lifecycle events to a.
func WithAuditor(a Auditor) Option {
	return func(c *Controller) { c.auditor = a }
}

// WithClock sets the time source for monitors and timestamps.
func WithClock(cl clock.Clock) Option {
	return func(c *Controller) { c.clock = cl }
}

// WithLogger sets the logger, which is also handed to monitors.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithActivitySource sets where monitors subscribe for user activity.
func WithActivitySource(src idle.ActivitySource) Option {
	return func(c *Controller) { c.source = src }
}

// WithLogoutTimeout overrides DefaultLogoutTimeout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(c *Controller) { c.logoutTimeout = d }
}

// WithHooks sets the event hooks.
func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// NewController creates a controller. The idle configuration is validated
// here so a bad config fails at startup rather than at first login.
func NewController(backend Backend, p Preferences, opts ...Option) (*Controller, error) {
	if backend == nil || p == nil {
		return nil, errors.New("session: backend and preferences are required")
	}
	c := &Controller{
		backend:       backend,
		prefs:         p,
		idleCfg:       idle.DefaultConfig(),
		clock:         clock.Real(),
		log:           log.New(io.Discard),
		logoutTimeout: DefaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.idleCfg.Validate(); err != nil {
		return nil, err
	}
	c.stopPrefs = p.OnChange(c.preferencesChanged)
	return c, nil
}

// Login authenticates and starts the idle monitor for the new session.
func (c *Controller) Login(ctx context.Context, creds api.Credentials) (*Session, error) {
	c.mu.Lock()
	busy := c.cur != nil
	c.mu.Unlock()
	if busy {
		return nil, ErrAlreadyLoggedIn
	}

	res, err := c.backend.Login(ctx, creds)
	if err != nil {
		c.record("", audit.EventLoginFailed, fmt.Sprintf("%s: %v", creds.Email, err))
		c.log.Warn("SESSION_LOGIN_FAILED", "email", creds.Email, "err", err)
		return nil, err
	}

	s := &Session{
		ID:        uuid.New().String(),
		User:      res.User,
		StartedAt: c.clock.Now(),
		ctrl:      c,
		reason:    ReasonTimeout,
	}
	mon, err := idle.New(c.idleCfg, s,
		idle.WithClock(c.clock),
		idle.WithLogger(c.log.With("session", s.ID)),
		idle.WithActivitySource(c.source),
		idle.OnWarning(func(secs int) {
			c.record(s.ID, audit.EventWarning, fmt.Sprintf("expires in %ds", secs))
			if c.hooks.OnWarning != nil {
				c.hooks.OnWarning(secs)
			}
		}),
		idle.OnTick(func(secs int) {
			if c.hooks.OnTick != nil {
				c.hooks.OnTick(secs)
			}
		}),
		idle.OnExpired(func() {
			if c.hooks.OnExpired != nil {
				c.hooks.OnExpired()
			}
		}),
		idle.OnError(func(err error) {
			c.log.Error("SESSION_LOGOUT_FAILED", "session", s.ID, "err", err)
		}),
	)
	if err != nil {
		// Unreachable with a validated config; undo the server login anyway.
		_ = c.backend.Logout(ctx)
		return nil, err
	}
	s.monitor = mon

	c.mu.Lock()
	if c.cur != nil {
		c.mu.Unlock()
		_ = c.backend.Logout(ctx)
		return nil, ErrAlreadyLoggedIn
	}
	c.cur = s
	c.mu.Unlock()

	c.record(s.ID, audit.EventLogin, res.User.Email)
	c.log.Info("SESSION_LOGIN", "session", s.ID, "user", res.User.Email)

	if err := mon.Start(); err != nil {
		s.Logout()
		return nil, err
	}
	return s, nil
}

// Current returns the active session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// LoggedIn reports whether a session is active.
func (c *Controller) LoggedIn() bool {
	return c.Current() != nil
}

// Logout ends the active session at the user's request. It is idempotent:
// without an active session it does nothing and returns nil.
func (c *Controller) Logout() error {
	s := c.Current()
	if s == nil {
		return nil
	}
	s.setReason(ReasonUser)
	return s.monitor.LogoutNow()
}

// StayLoggedIn acknowledges an idle warning. It reports whether a warning
// was showing.
func (c *Controller) StayLoggedIn() bool {
	s := c.Current()
	if s == nil {
		return false
	}
	if !s.monitor.StayLoggedIn() {
		return false
	}
	c.record(s.ID, audit.EventExtended, "")
	return true
}

// State returns the active session's monitor state.
func (c *Controller) State() (idle.State, bool) {
	s := c.Current()
	if s == nil {
		return idle.State{}, false
	}
	return s.monitor.State(), true
}

// IdleFor returns how long the active session has been idle, or zero.
func (c *Controller) IdleFor() time.Duration {
	s := c.Current()
	if s == nil {
		return 0
	}
	return s.monitor.IdleFor()
}

// WarningsSuppressed reports the persisted "don't warn me" preference.
func (c *Controller) WarningsSuppressed() bool {
	return c.prefs.SuppressIdleWarning()
}

// SetWarningsSuppressed persists the preference. A running monitor picks the
// change up through the preference subscription.
func (c *Controller) SetWarningsSuppressed(v bool) error {
	return c.prefs.SetSuppressIdleWarning(v)
}

// Close logs out any active session and detaches from the preference store.
func (c *Controller) Close() error {
	err := c.Logout()
	c.mu.Lock()
	stop := c.stopPrefs
	c.stopPrefs = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	return err
}

func (c *Controller) preferencesChanged(p prefs.Prefs) {
	s := c.Current()
	typ := audit.EventWarningsOn
	if p.SuppressIdleWarning {
		typ = audit.EventWarningsOff
	}
	if s == nil {
		c.record("", typ, "")
		return
	}
	c.record(s.ID, typ, "")
	s.monitor.SuppressionChanged()
}

// finish runs once per session, from the monitor's expiry path.
func (c *Controller) finish(s *Session) error {
	c.mu.Lock()
	if c.cur == s {
		c.cur = nil
	}
	c.mu.Unlock()

	s.monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), c.logoutTimeout)
	defer cancel()
	err := c.backend.Logout(ctx)

	reason := s.Reason()
	typ := audit.EventLogout
	if reason == ReasonTimeout {
		typ = audit.EventExpired
	}
	c.record(s.ID, typ, string(reason))
	c.log.Info("SESSION_LOGOUT", "session", s.ID, "reason", reason)

	if err != nil {
		c.record(s.ID, audit.EventLogoutFailed, err.Error())
		c.log.Warn("SESSION_LOGOUT_FAILED", "session", s.ID, "err", err)
		err = fmt.Errorf("server logout failed (local session cleared): %w", err)
	}
	if c.hooks.OnLogout != nil {
		c.hooks.OnLogout(reason, err)
	}
	return err
}

func (c *Controller) record(sessionID string, typ audit.EventType, detail string) {
	if c.auditor == nil {
		return
	}
	if sessionID == "" {
		sessionID = "-"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.auditor.Record(ctx, sessionID, typ, detail); err != nil {
		c.log.Warn("AUDIT_WRITE_FAILED", "event", typ, "err", err)
	}
}

// Session is one authenticated login. It is the idle monitor's session
// controller: the monitor calls Logout on expiry.
type Session struct {
	ID        string
	User      api.User
	StartedAt time.Time

	ctrl    *Controller
	monitor *idle.Monitor

	mu     sync.Mutex
	reason Reason
	once   sync.Once
	err    error
}

// Logout ends the session. Only the first call has any effect; later calls
// return the first call's result.
func (s *Session) Logout() error {
	s.once.Do(func() { s.err = s.ctrl.finish(s) })
	return s.err
}

// WarningsSuppressed reads the shared preference at call time.
func (s *Session) WarningsSuppressed() bool {
	return s.ctrl.WarningsSuppressed()
}

// Monitor returns the session's idle monitor.
func (s *Session) Monitor() *idle.Monitor {
	return s.monitor
}

// Reason returns why the session ended (or will end by default).
func (s *Session) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Session) setReason(r Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = r
}
