// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jeranaias/storefront-tui/internal/activity"
	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/session"
	"github.com/jeranaias/storefront-tui/internal/ui/components"
	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

type fakeSessions struct {
	mu         sync.Mutex
	loginErr   error
	logouts    int
	stays      int
	suppressed bool
	state      idle.State
	loggedIn   bool
}

func (f *fakeSessions) Login(_ context.Context, creds api.Credentials) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	return &session.Session{ID: "s1", User: api.User{Email: creds.Email, Name: "Ana Lima"}}, nil
}

func (f *fakeSessions) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.loggedIn = false
	return nil
}

func (f *fakeSessions) StayLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stays++
	return true
}

func (f *fakeSessions) State() (idle.State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state
	st.Suppressed = f.suppressed
	return st, f.loggedIn
}

func (f *fakeSessions) IdleFor() time.Duration { return 5 * time.Second }

func (f *fakeSessions) WarningsSuppressed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suppressed
}

func (f *fakeSessions) SetWarningsSuppressed(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppressed = v
	return nil
}

type fakeStore struct {
	orders []api.Order
	err    error
}

func (s *fakeStore) AllOrders(context.Context, int) ([]api.Order, error) {
	return s.orders, s.err
}

func newModel(t *testing.T) (Model, *fakeSessions, *fakeStore) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	sessions := &fakeSessions{}
	store := &fakeStore{orders: []api.Order{{ID: "o1", Number: "1001", Status: api.OrderPaid,
		Total: api.Money{Amount: 1999, Currency: "USD"}}}}
	m := New(Deps{
		Sessions:  sessions,
		Store:     store,
		Bridge:    activity.NewBridge(true),
		Theme:     styles.NewTheme("dark"),
		Money:     export.NewMoneyFormatter(language.AmericanEnglish),
		ExportDir: t.TempDir(),
	})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30}), sessions, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// drain runs cmd and feeds every resulting message back into the model.
// Animation and refresh timers are not followed.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command chain did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, statusTickMsg, tea.QuitMsg, spinner.TickMsg, cursor.BlinkMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, c := m.Update(msg)
			m = next.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

func login(t *testing.T, m Model) Model {
	t.Helper()
	next, cmd := m.Update(components.LoginSubmitMsg{Email: "ana@example.com", Password: "pw"})
	return drain(t, next.(Model), cmd)
}

func TestLogin_ShowsOrders(t *testing.T) {
	m, _, _ := newModel(t)
	m = login(t, m)

	assert.Equal(t, ScreenOrders, m.Screen())
	view := m.View()
	assert.Contains(t, view, "#1001")
	assert.Contains(t, view, "Ana Lima")
}

func TestLogin_Error(t *testing.T) {
	m, sessions, _ := newModel(t)
	sessions.loginErr = api.ErrUnauthorized
	m = login(t, m)

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "invalid e-mail or password")
}

func TestWarning_IncidentalInputKeepsOverlay(t *testing.T) {
	m, sessions, _ := newModel(t)
	m = login(t, m)

	m = update(t, m, WarningMsg{SecondsRemaining: 60})
	require.True(t, m.overlay.IsVisible())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = update(t, m, tea.MouseMsg{Action: tea.MouseActionMotion})
	assert.True(t, m.overlay.IsVisible())
	assert.Zero(t, sessions.stays)

	m = update(t, m, CountdownMsg{SecondsRemaining: 42})
	assert.Contains(t, m.View(), "0:42")
}

func TestWarning_StayLoggedIn(t *testing.T) {
	m, sessions, _ := newModel(t)
	m = login(t, m)
	m = update(t, m, WarningMsg{SecondsRemaining: 60})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = drain(t, next.(Model), cmd)

	assert.False(t, m.overlay.IsVisible())
	assert.Equal(t, 1, sessions.stays)
}

func TestWarning_ToggleSuppress(t *testing.T) {
	m, sessions, _ := newModel(t)
	m = login(t, m)
	m = update(t, m, WarningMsg{SecondsRemaining: 60})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = drain(t, next.(Model), cmd)

	assert.True(t, sessions.WarningsSuppressed())
	assert.True(t, m.overlay.IsVisible(), "the open warning runs to completion")
}

func TestWarning_LogoutNow(t *testing.T) {
	m, sessions, _ := newModel(t)
	m = login(t, m)
	m = update(t, m, WarningMsg{SecondsRemaining: 60})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, 1, sessions.logouts)

	m = update(t, m, LoggedOutMsg{Reason: session.ReasonUser})
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.False(t, m.overlay.IsVisible())
	assert.Contains(t, m.View(), "Signed out.")
}

func TestTimeout_ShowsExpiredThenLogin(t *testing.T) {
	m, _, _ := newModel(t)
	m = login(t, m)

	m = update(t, m, LoggedOutMsg{Reason: session.ReasonTimeout})
	m = update(t, m, ExpiredMsg{})
	assert.Equal(t, ScreenExpired, m.Screen())
	assert.Contains(t, m.View(), "Session expired")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "period of inactivity")
}

func TestLogout_ServerFailureNotice(t *testing.T) {
	m, _, _ := newModel(t)
	m = login(t, m)

	m = update(t, m, LoggedOutMsg{Reason: session.ReasonUser, Err: errors.New("boom")})
	assert.Contains(t, m.View(), "could not be reached")
}

func TestOrders_UnauthorizedLogsOut(t *testing.T) {
	m, sessions, store := newModel(t)
	store.err = api.ErrUnauthorized
	m = login(t, m)

	assert.Equal(t, 1, sessions.logouts)
}

func TestQuit_LogsOutFirst(t *testing.T) {
	m, sessions, _ := newModel(t)
	m = login(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View(), "nothing is drawn while quitting")

	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok, "quit follows the logout")
	assert.Equal(t, 1, sessions.logouts)
}

func TestUpdate_ReportsActivityToBridge(t *testing.T) {
	m, _, _ := newModel(t)
	keys := 0
	_, err := m.deps.Bridge.Subscribe(idle.KeyDown, func(idle.Kind) { keys++ })
	require.NoError(t, err)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 1, keys)
}

func TestExportCSV(t *testing.T) {
	m, _, _ := newModel(t)
	m = login(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = drain(t, next.(Model), cmd)
	assert.Contains(t, m.status.Message, "Saved")
	assert.Contains(t, m.status.Message, ".csv")
}
