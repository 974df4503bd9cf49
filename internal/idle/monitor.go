// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/storefront-tui/internal/clock"
)

// Monitor runs the idle-session state machine for one authenticated session.
//
// Transitions are serialized under a single mutex. Callbacks and controller
// calls are made without the lock held, so they may call back into the
// monitor (a logout handler calling Stop, for instance).
type Monitor struct {
	cfg   Config
	ctrl  SessionController
	src   ActivitySource
	clock clock.Clock
	log   *log.Logger

	onWarning func(secondsRemaining int)
	onTick    func(secondsRemaining int)
	onExpired func()
	onError   func(error)

	mu           sync.Mutex
	phase        Phase
	lastActivity time.Time
	remaining    int
	started      bool
	stopped      bool

	// gen is bumped on every arm and every transition; timer callbacks
	// carrying an older generation are discarded.
	gen       uint64
	idleTimer clock.Timer
	countdown clock.Timer
	subs      []Subscription
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source. Defaults to the real clock.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithLogger sets the logger for session events.
func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// WithActivitySource sets the source the monitor subscribes to on Start.
// Without one, activity must be reported through Activity.
func WithActivitySource(src ActivitySource) Option {
	return func(m *Monitor) { m.src = src }
}

// OnWarning is invoked once per transition into Warning.
func OnWarning(fn func(secondsRemaining int)) Option {
	return func(m *Monitor) { m.onWarning = fn }
}

// OnTick is invoked on every countdown decrement that leaves time remaining.
func OnTick(fn func(secondsRemaining int)) Option {
	return func(m *Monitor) { m.onTick = fn }
}

// OnExpired is invoked once, after the controller's Logout, when the monitor
// reaches Expired.
func OnExpired(fn func()) Option {
	return func(m *Monitor) { m.onExpired = fn }
}

// OnError receives controller logout failures on timer-driven expiry, where
// there is no caller to return them to.
func OnError(fn func(error)) Option {
	return func(m *Monitor) { m.onError = fn }
}

// New validates cfg and creates a monitor in the Active phase. The monitor
// does nothing until Start.
func New(cfg Config, ctrl SessionController, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil {
		return nil, ErrNoController
	}

	m := &Monitor{
		cfg:   cfg,
		ctrl:  ctrl,
		clock: clock.Real(),
		log:   log.New(io.Discard),
		phase: Active,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.onError == nil {
		m.onError = func(err error) {
			m.log.Error("SESSION_LOGOUT_FAILED", "err", err)
		}
	}
	return m, nil
}

// Config returns the monitor's timing configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// Start arms the inactivity timer and subscribes to every activity kind.
// A kind the source refuses is logged and skipped.
func (m *Monitor) Start() error {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.lastActivity = m.clock.Now()
	m.armIdleLocked(m.cfg.WarningAfter(), suppressed)
	src := m.src
	m.mu.Unlock()

	m.log.Info("SESSION_MONITOR_STARTED",
		"timeout", m.cfg.TotalTimeout, "warning_lead", m.cfg.WarningLeadTime, "suppressed", suppressed)

	if src == nil {
		return nil
	}

	var subs []Subscription
	for _, kind := range Kinds() {
		sub, err := src.Subscribe(kind, m.Activity)
		if err != nil {
			m.log.Warn("ACTIVITY_LISTENER_UNAVAILABLE", "kind", kind, "err", err)
			continue
		}
		subs = append(subs, sub)
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		return nil
	}
	m.subs = subs
	m.mu.Unlock()
	return nil
}

// Activity records a qualifying activity event. While Active it restarts the
// inactivity clock. While Warning it is ignored: only StayLoggedIn or Dismiss
// end a warning.
func (m *Monitor) Activity(kind Kind) {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.stopped || m.phase != Active {
		return
	}
	m.lastActivity = m.clock.Now()
	m.armIdleLocked(m.cfg.WarningAfter(), suppressed)
}

// StayLoggedIn acknowledges the warning, cancels the countdown and restarts
// the inactivity clock. It reports whether a warning was acknowledged.
func (m *Monitor) StayLoggedIn() bool {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	if !m.started || m.stopped || m.phase != Warning {
		m.mu.Unlock()
		return false
	}
	m.stopCountdownLocked()
	m.phase = Active
	m.remaining = 0
	m.lastActivity = m.clock.Now()
	m.armIdleLocked(m.cfg.WarningAfter(), suppressed)
	m.mu.Unlock()

	m.log.Info("SESSION_EXTENDED")
	return true
}

// Dismiss closes the warning dialog. It has the same effect as StayLoggedIn.
func (m *Monitor) Dismiss() bool {
	return m.StayLoggedIn()
}

// LogoutNow ends the session immediately. Repeated calls after the first are
// no-ops; the controller's Logout runs exactly once and its error is
// returned to the first caller.
func (m *Monitor) LogoutNow() error {
	m.mu.Lock()
	if !m.started || m.stopped || m.phase == Expired {
		m.mu.Unlock()
		return nil
	}
	m.stopIdleLocked()
	m.stopCountdownLocked()
	m.phase = Expired
	m.remaining = 0
	m.gen++
	m.mu.Unlock()

	return m.expire("user")
}

// SuppressionChanged re-reads the controller's preference. Suppression
// disarms a pending warning while Active; lifting it re-arms the warning for
// the remainder of the current inactivity period. A warning already on
// screen is left to run its course.
func (m *Monitor) SuppressionChanged() {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.stopped || m.phase != Active {
		return
	}
	if suppressed {
		m.stopIdleLocked()
		m.gen++
		return
	}
	if m.idleTimer != nil {
		return
	}
	remaining := m.cfg.WarningAfter() - m.clock.Now().Sub(m.lastActivity)
	if remaining < 0 {
		remaining = 0
	}
	m.armIdleLocked(remaining, false)
}

// Stop tears the monitor down: timers are cancelled and listeners released.
// No warning, tick or expiry begins afterwards. An expiry already under way
// is the one exception: the controller's Logout usually calls Stop, and
// OnExpired still reports that expiry once Logout returns. Safe to call more
// than once and from within a callback.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.stopIdleLocked()
	m.stopCountdownLocked()
	m.gen++
	subs := m.subs
	m.subs = nil
	phase := m.phase
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	m.log.Debug("SESSION_MONITOR_STOPPED", "phase", phase)
}

// State returns a snapshot of the monitor.
func (m *Monitor) State() State {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	defer m.mu.Unlock()

	return State{
		Phase:            m.phase,
		LastActivityAt:   m.lastActivity,
		SecondsRemaining: m.remaining,
		Suppressed:       suppressed,
	}
}

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// SecondsRemaining returns the countdown value; zero outside Warning.
func (m *Monitor) SecondsRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// IdleFor returns the time since the last qualifying activity.
func (m *Monitor) IdleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastActivity.IsZero() {
		return 0
	}
	return m.clock.Now().Sub(m.lastActivity)
}

// =============================================================================
// TIMERS
// =============================================================================

// armIdleLocked replaces any pending inactivity timer. While suppressed no
// timer is armed and the monitor stays Active.
func (m *Monitor) armIdleLocked(d time.Duration, suppressed bool) {
	m.stopIdleLocked()
	m.gen++
	if suppressed {
		return
	}
	gen := m.gen
	m.idleTimer = m.clock.AfterFunc(d, func() { m.warn(gen) })
}

func (m *Monitor) armCountdownLocked(d time.Duration) {
	m.stopCountdownLocked()
	m.gen++
	gen := m.gen
	m.countdown = m.clock.AfterFunc(d, func() { m.tick(gen) })
}

func (m *Monitor) stopIdleLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *Monitor) stopCountdownLocked() {
	if m.countdown != nil {
		m.countdown.Stop()
		m.countdown = nil
	}
}

// warn fires when the inactivity period elapses.
func (m *Monitor) warn(gen uint64) {
	suppressed := m.ctrl.WarningsSuppressed()

	m.mu.Lock()
	if m.stopped || gen != m.gen || m.phase != Active {
		m.mu.Unlock()
		return
	}
	m.idleTimer = nil
	if suppressed {
		m.mu.Unlock()
		m.log.Info("SESSION_WARNING_SUPPRESSED")
		return
	}
	m.phase = Warning
	m.remaining = m.cfg.CountdownSeconds()
	m.armCountdownLocked(m.cfg.firstTick())
	secs := m.remaining
	cb := m.onWarning
	m.mu.Unlock()

	m.log.Info("SESSION_WARNING", "expires_in", m.cfg.WarningLeadTime)
	if cb != nil {
		cb(secs)
	}
}

// tick decrements the countdown once per second.
func (m *Monitor) tick(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen || m.phase != Warning {
		m.mu.Unlock()
		return
	}
	m.countdown = nil
	m.remaining--
	if m.remaining <= 0 {
		m.remaining = 0
		m.phase = Expired
		m.gen++
		m.mu.Unlock()

		if err := m.expire("timeout"); err != nil {
			m.onError(err)
		}
		return
	}
	m.armCountdownLocked(time.Second)
	secs := m.remaining
	cb := m.onTick
	m.mu.Unlock()

	if cb != nil {
		cb(secs)
	}
}

// expire runs the logout side effects. The caller has already moved the
// phase to Expired under the lock, which makes this run at most once.
// OnExpired fires even if Logout stopped the monitor.
func (m *Monitor) expire(reason string) error {
	m.log.Info("SESSION_EXPIRED", "reason", reason)

	err := m.ctrl.Logout()
	if m.onExpired != nil {
		m.onExpired()
	}
	return err
}
