// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/session"
	"github.com/jeranaias/storefront-tui/internal/ui/components"
)

// Update handles every message. Input is reported to the activity bridge
// before anything else so the idle monitor sees all of it.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.deps.Bridge != nil {
		m.deps.Bridge.Observe(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case statusTickMsg:
		m.refreshStatus()
		return m, statusTick()

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.login.Submitting() {
			cmds = append(cmds, m.login.Update(msg))
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	// Session events from the dispatcher.
	case WarningMsg:
		m.overlay.Show(msg.SecondsRemaining, m.deps.Sessions.WarningsSuppressed())
		m.refreshStatus()
		return m, nil

	case CountdownMsg:
		m.overlay.UpdateSeconds(msg.SecondsRemaining)
		m.status.SecondsRemaining = msg.SecondsRemaining
		return m, nil

	case ExpiredMsg:
		m.status.Phase = idle.Expired
		return m, nil

	case LoggedOutMsg:
		return m.loggedOut(msg)

	// Results of commands.
	case loginResultMsg:
		if msg.err != nil {
			m.login.SetError(loginError(msg.err))
			return m, nil
		}
		m.user = msg.sess.User
		m.header.User = m.user.DisplayName()
		m.screen = ScreenOrders
		m.login.SetNotice("")
		m.status.SetMessage("Signed in as "+m.user.Email, false)
		m.refreshStatus()
		return m, m.loadOrders()

	case ordersLoadedMsg:
		m.loading = false
		m.spinner.Stop()
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.status.SetMessage("Your session is no longer valid", true)
				return m, m.logout()
			}
			m.status.SetMessage("Could not load orders: "+msg.err.Error(), true)
			return m, nil
		}
		m.orders.SetOrders(msg.orders)
		m.status.SetMessage(fmt.Sprintf("%d orders", len(msg.orders)), false)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.status.SetMessage("Export failed: "+msg.err.Error(), true)
		} else {
			m.status.SetMessage("Saved "+msg.path, false)
		}
		return m, nil

	case actionErrMsg:
		m.status.SetMessage(msg.err.Error(), true)
		return m, nil

	// Overlay actions.
	case components.StayLoggedInMsg, components.DismissWarningMsg:
		m.overlay.Hide()
		return m, m.stayLoggedIn()

	case components.LogoutNowMsg:
		return m, m.logout()

	case components.ToggleSuppressMsg:
		return m, m.setSuppressed(msg.Suppressed)

	case components.SignInAgainMsg:
		m.screen = ScreenLogin
		return m, m.login.Reset()

	case components.LoginSubmitMsg:
		return m, m.doLogin(msg.Email, msg.Password)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.screen == ScreenLogin {
		return m, m.login.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		if m.overlay.IsExpired() && key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return *m, cmd
	}

	switch m.screen {
	case ScreenLogin:
		return *m, m.login.Update(msg)
	case ScreenExpired:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		if msg.Type == tea.KeyEnter {
			m.screen = ScreenLogin
			return *m, m.login.Reset()
		}
		return *m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
	case key.Matches(msg, m.keys.Logout):
		return *m, m.logout()
	case key.Matches(msg, m.keys.Up):
		m.orders.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.orders.MoveDown()
	case key.Matches(msg, m.keys.Open):
		m.orders.ShowDetail(true)
	case key.Matches(msg, m.keys.Back):
		m.orders.ShowDetail(false)
	case key.Matches(msg, m.keys.Refresh):
		return *m, m.loadOrders()
	case key.Matches(msg, m.keys.CSV):
		return *m, m.exportOrders(export.NewCSVExporter(m.exportOptions()), m.orders.Orders())
	case key.Matches(msg, m.keys.JSON):
		return *m, m.exportOrders(export.NewJSONExporter(m.exportOptions()), m.orders.Orders())
	case key.Matches(msg, m.keys.Receipt):
		if o := m.orders.Selected(); o != nil {
			return *m, m.exportOrders(export.NewMarkdownExporter(m.exportOptions()), []api.Order{*o})
		}
	}
	return *m, nil
}

func (m *Model) loggedOut(msg LoggedOutMsg) (tea.Model, tea.Cmd) {
	m.user = api.User{}
	m.header.User = ""
	m.orders.SetOrders(nil)
	m.orders.ShowDetail(false)
	m.loading = false
	m.spinner.Stop()
	m.status.SetState(idle.State{Phase: idle.Expired}, 0)

	if msg.Err != nil {
		m.log.Warn("SESSION_LOGOUT_FAILED", "err", msg.Err)
	}
	if m.quitting {
		return *m, tea.Quit
	}

	if msg.Reason == session.ReasonTimeout {
		m.screen = ScreenExpired
		m.overlay.Expire()
		m.login.SetNotice("You were signed out after a period of inactivity.")
		return *m, nil
	}

	m.overlay.Hide()
	m.screen = ScreenLogin
	notice := "Signed out."
	if msg.Err != nil {
		notice = "Signed out locally; the store could not be reached."
	}
	m.login.SetNotice(notice)
	m.status.SetMessage("", false)
	return *m, m.login.Reset()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.screen != ScreenOrders || m.quitting {
		return *m, tea.Quit
	}
	m.quitting = true
	sessions := m.deps.Sessions
	return *m, func() tea.Msg {
		if err := sessions.Logout(); err != nil {
			m.log.Warn("SESSION_LOGOUT_FAILED", "err", err)
		}
		return tea.Quit()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.deps.Theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.help.Width = width
	m.login.SetSize(width, height-2)
	m.overlay.SetSize(width, height)

	helpLines := 1
	if m.help.ShowAll {
		helpLines = len(m.keys.FullHelp()[0])
	}
	m.orders.SetSize(width-2, height-3-helpLines)
}

func (m *Model) refreshStatus() {
	st, ok := m.deps.Sessions.State()
	if !ok {
		return
	}
	m.status.SetState(st, m.deps.Sessions.IdleFor())
	if m.overlay.IsVisible() && !m.overlay.IsExpired() {
		m.overlay.SetSuppressed(st.Suppressed)
	}
}

func (m *Model) exportOptions() *export.Options {
	opts := export.DefaultOptions()
	opts.OutputDir = m.deps.ExportDir
	return opts
}

// =============================================================================
// COMMANDS
// =============================================================================

// Controller calls run as commands: they may fire session hooks, and those
// must never be delivered from inside Update.

func (m *Model) doLogin(email, password string) tea.Cmd {
	sessions := m.deps.Sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		s, err := sessions.Login(ctx, api.Credentials{Email: email, Password: password})
		return loginResultMsg{sess: s, err: err}
	}
}

func (m *Model) logout() tea.Cmd {
	sessions := m.deps.Sessions
	return func() tea.Msg {
		// The outcome arrives as LoggedOutMsg through the session hooks.
		if err := sessions.Logout(); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) stayLoggedIn() tea.Cmd {
	sessions := m.deps.Sessions
	return func() tea.Msg {
		sessions.StayLoggedIn()
		return nil
	}
}

func (m *Model) setSuppressed(v bool) tea.Cmd {
	sessions := m.deps.Sessions
	return func() tea.Msg {
		if err := sessions.SetWarningsSuppressed(v); err != nil {
			return actionErrMsg{err: fmt.Errorf("saving preference: %w", err)}
		}
		return nil
	}
}

func (m *Model) loadOrders() tea.Cmd {
	if m.loading || m.deps.Store == nil {
		return nil
	}
	m.loading = true
	store := m.deps.Store
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		orders, err := store.AllOrders(ctx, MaxOrders)
		return ordersLoadedMsg{orders: orders, err: err}
	}
	return tea.Batch(m.spinner.Start(), load)
}

func (m *Model) exportOrders(exp export.Exporter, orders []api.Order) tea.Cmd {
	opts := m.exportOptions()
	return func() tea.Msg {
		path, err := export.ExportToFile(orders, exp, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

func loginError(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return errors.New("invalid e-mail or password")
	case errors.Is(err, api.ErrRateLimited):
		return errors.New("too many attempts, try again shortly")
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		return err
	default:
		return fmt.Errorf("sign in failed: %w", err)
	}
}
