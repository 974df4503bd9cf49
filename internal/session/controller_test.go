// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/audit"
	"github.com/jeranaias/storefront-tui/internal/clock"
	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/prefs"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu        sync.Mutex
	logins    int
	logouts   int
	loginErr  error
	logoutErr error
}

func (b *fakeBackend) Login(_ context.Context, creds api.Credentials) (*api.LoginResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	b.logins++
	return &api.LoginResult{Token: "tok", User: api.User{ID: "u1", Email: creds.Email}}, nil
}

func (b *fakeBackend) Logout(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logouts++
	return b.logoutErr
}

func (b *fakeBackend) logoutCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logouts
}

type events struct {
	mu       sync.Mutex
	warnings []int
	ticks    int
	expired  int
	logouts  []Reason
	errs     []error
}

func (e *events) hooks() Hooks {
	return Hooks{
		OnWarning: func(secs int) { e.mu.Lock(); e.warnings = append(e.warnings, secs); e.mu.Unlock() },
		OnTick:    func(int) { e.mu.Lock(); e.ticks++; e.mu.Unlock() },
		OnExpired: func() { e.mu.Lock(); e.expired++; e.mu.Unlock() },
		OnLogout: func(r Reason, err error) {
			e.mu.Lock()
			e.logouts = append(e.logouts, r)
			e.errs = append(e.errs, err)
			e.mu.Unlock()
		},
	}
}

type harness struct {
	ctrl    *Controller
	backend *fakeBackend
	clock   *clock.Fake
	prefs   *prefs.Store
	audit   *audit.Store
	events  *events
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := clock.NewFake(epoch)
	store, err := prefs.OpenDir(t.TempDir())
	require.NoError(t, err)
	auditStore, err := audit.Open(":memory:", audit.WithClock(fc))
	require.NoError(t, err)
	t.Cleanup(func() { auditStore.Close() })

	h := &harness{backend: &fakeBackend{}, clock: fc, prefs: store, audit: auditStore, events: &events{}}
	h.ctrl, err = NewController(h.backend, store,
		WithClock(fc),
		WithAuditor(auditStore),
		WithIdleConfig(idle.Config{TotalTimeout: 10 * time.Minute, WarningLeadTime: time.Minute}),
		WithHooks(h.events.hooks()),
	)
	require.NoError(t, err)
	return h
}

func (h *harness) login(t *testing.T) *Session {
	t.Helper()
	s, err := h.ctrl.Login(context.Background(), api.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	return s
}

func (h *harness) auditTypes(t *testing.T, sessionID string) []audit.EventType {
	t.Helper()
	evs, err := h.audit.BySession(context.Background(), sessionID)
	require.NoError(t, err)
	var types []audit.EventType
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	return types
}

func TestNewController_Validation(t *testing.T) {
	store, err := prefs.OpenDir(t.TempDir())
	require.NoError(t, err)

	_, err = NewController(nil, store)
	assert.Error(t, err)

	_, err = NewController(&fakeBackend{}, store,
		WithIdleConfig(idle.Config{TotalTimeout: time.Minute, WarningLeadTime: time.Minute}))
	assert.ErrorIs(t, err, idle.ErrInvalidConfig)
}

func TestLogin_StartsMonitor(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	assert.True(t, h.ctrl.LoggedIn())
	assert.Equal(t, "ada@example.com", s.User.Email)
	assert.Equal(t, epoch, s.StartedAt)

	st, ok := h.ctrl.State()
	require.True(t, ok)
	assert.Equal(t, idle.Active, st.Phase)
	assert.Equal(t, 1, h.clock.Pending())
}

func TestLogin_Twice(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, err := h.ctrl.Login(context.Background(), api.Credentials{Email: "b@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrAlreadyLoggedIn)
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t)
	h.backend.loginErr = api.ErrUnauthorized

	_, err := h.ctrl.Login(context.Background(), api.Credentials{Email: "ada@example.com", Password: "bad"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, h.ctrl.LoggedIn())
	assert.Zero(t, h.clock.Pending())
	assert.Equal(t, []audit.EventType{audit.EventLoginFailed}, h.auditTypes(t, "-"))
}

func TestIdleTimeout_LogsOut(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	h.clock.Advance(9 * time.Minute)
	assert.Equal(t, []int{60}, h.events.warnings)

	h.clock.Advance(time.Minute)

	assert.False(t, h.ctrl.LoggedIn())
	assert.Equal(t, 1, h.backend.logoutCount())
	assert.Equal(t, 1, h.events.expired)
	assert.Equal(t, 59, h.events.ticks)
	assert.Equal(t, []Reason{ReasonTimeout}, h.events.logouts)
	assert.Equal(t, ReasonTimeout, s.Reason())
	assert.Zero(t, h.clock.Pending())
	assert.Equal(t, []audit.EventType{audit.EventLogin, audit.EventWarning, audit.EventExpired},
		h.auditTypes(t, s.ID))
}

func TestStayLoggedIn_ExtendsSession(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	assert.False(t, h.ctrl.StayLoggedIn(), "nothing to acknowledge while active")

	h.clock.Advance(545 * time.Second)
	require.True(t, h.ctrl.StayLoggedIn())

	h.clock.Advance(599 * time.Second)
	assert.True(t, h.ctrl.LoggedIn(), "a fresh period started at 545s")
	assert.Len(t, h.events.warnings, 2)

	h.clock.Advance(time.Second)
	assert.False(t, h.ctrl.LoggedIn())
	assert.Contains(t, h.auditTypes(t, s.ID), audit.EventExtended)
}

func TestLogout_User(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	require.NoError(t, h.ctrl.Logout())
	require.NoError(t, h.ctrl.Logout())

	assert.False(t, h.ctrl.LoggedIn())
	assert.Equal(t, 1, h.backend.logoutCount())
	assert.Equal(t, []Reason{ReasonUser}, h.events.logouts)
	assert.Zero(t, h.clock.Pending())
	assert.Equal(t, []audit.EventType{audit.EventLogin, audit.EventLogout}, h.auditTypes(t, s.ID))

	h.clock.Advance(time.Hour)
	assert.Empty(t, h.events.warnings)
}

func TestLogout_DuringWarning(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.clock.Advance(570 * time.Second)
	require.NoError(t, h.ctrl.Logout())

	assert.Equal(t, []Reason{ReasonUser}, h.events.logouts)
	assert.Equal(t, 1, h.events.expired)
	assert.Zero(t, h.clock.Pending())
}

func TestLogout_ServerFailureStillClearsLocalState(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)
	h.backend.logoutErr = errors.New("connection reset")

	err := h.ctrl.Logout()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local session cleared")
	assert.False(t, h.ctrl.LoggedIn())
	assert.Contains(t, h.auditTypes(t, s.ID), audit.EventLogoutFailed)

	// A later login works.
	h.backend.logoutErr = nil
	h.login(t)
	assert.True(t, h.ctrl.LoggedIn())
}

func TestSessionLogout_Idempotent(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	require.NoError(t, s.Logout())
	require.NoError(t, s.Logout())
	assert.Equal(t, 1, h.backend.logoutCount())
}

func TestSuppression_SkipsWarningAndExpiry(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)

	require.NoError(t, h.ctrl.SetWarningsSuppressed(true))
	assert.True(t, h.ctrl.WarningsSuppressed())
	assert.Zero(t, h.clock.Pending(), "suppression disarms the pending warning")

	h.clock.Advance(2 * time.Hour)
	assert.Empty(t, h.events.warnings)
	assert.True(t, h.ctrl.LoggedIn())

	st, _ := h.ctrl.State()
	assert.True(t, st.Suppressed)
	assert.Contains(t, h.auditTypes(t, s.ID), audit.EventWarningsOff)
}

func TestSuppression_LiftedRearms(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.clock.Advance(time.Minute)
	require.NoError(t, h.ctrl.SetWarningsSuppressed(true))
	h.clock.Advance(2 * time.Minute)
	require.NoError(t, h.ctrl.SetWarningsSuppressed(false))

	// Warning was due at 540s; 180s have elapsed.
	h.clock.Advance(359 * time.Second)
	assert.Empty(t, h.events.warnings)
	h.clock.Advance(time.Second)
	assert.Equal(t, []int{60}, h.events.warnings)
}

func TestSuppression_DoesNotCancelVisibleWarning(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.clock.Advance(550 * time.Second)
	require.Len(t, h.events.warnings, 1)
	require.NoError(t, h.ctrl.SetWarningsSuppressed(true))

	h.clock.Advance(50 * time.Second)
	assert.False(t, h.ctrl.LoggedIn())
	assert.Equal(t, 1, h.events.expired)
}

func TestSuppression_PersistsAcrossSessions(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetWarningsSuppressed(true))

	h.login(t)
	assert.Zero(t, h.clock.Pending(), "no timer is armed for a suppressed session")

	reopened, err := prefs.Open(h.prefs.Path())
	require.NoError(t, err)
	assert.True(t, reopened.SuppressIdleWarning())
}

func TestSuppression_SessionNeverExpires(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetWarningsSuppressed(true))
	h.login(t)

	h.clock.Advance(72 * time.Hour)

	assert.True(t, h.ctrl.LoggedIn())
	st, ok := h.ctrl.State()
	require.True(t, ok)
	assert.Equal(t, idle.Active, st.Phase)
	assert.Zero(t, h.backend.logoutCount())
	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	assert.Empty(t, h.events.warnings)
	assert.Zero(t, h.events.expired)
}

func TestClose_LogsOutAndDetaches(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	require.NoError(t, h.ctrl.Close())
	assert.False(t, h.ctrl.LoggedIn())

	// Detached: no audit event for a preference change after Close.
	require.NoError(t, h.prefs.SetSuppressIdleWarning(true))
	assert.NotContains(t, h.auditTypes(t, "-"), audit.EventWarningsOff)
}

func TestIdleFor(t *testing.T) {
	h := newHarness(t)
	assert.Zero(t, h.ctrl.IdleFor())

	h.login(t)
	h.clock.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, h.ctrl.IdleFor())
}
