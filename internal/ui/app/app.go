// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/storefront-tui/internal/activity"
	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/session"
	"github.com/jeranaias/storefront-tui/internal/ui/components"
	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

const (
	// MaxOrders caps how much order history is loaded into the table.
	MaxOrders = 200

	// RequestTimeout bounds every store request made from the UI.
	RequestTimeout = 30 * time.Second

	statusInterval = time.Second
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Sessions is the session controller as seen by the UI.
type Sessions interface {
	Login(ctx context.Context, creds api.Credentials) (*session.Session, error)
	Logout() error
	StayLoggedIn() bool
	State() (idle.State, bool)
	IdleFor() time.Duration
	WarningsSuppressed() bool
	SetWarningsSuppressed(v bool) error
}

// Store loads order history.
type Store interface {
	AllOrders(ctx context.Context, max int) ([]api.Order, error)
}

// Deps are the collaborators of the app model.
type Deps struct {
	Sessions Sessions
	Store    Store
	Bridge   *activity.Bridge
	Theme    *styles.Theme
	Money    *export.MoneyFormatter

	// ExportDir receives exported order files and receipts.
	ExportDir string
	StoreURL  string
	Email     string
	Logger    *log.Logger
}

// =============================================================================
// MESSAGES
// =============================================================================

// WarningMsg reports that the idle warning opened.
type WarningMsg struct{ SecondsRemaining int }

// CountdownMsg is one countdown tick of an open warning.
type CountdownMsg struct{ SecondsRemaining int }

// ExpiredMsg reports that the monitor reached Expired.
type ExpiredMsg struct{}

// LoggedOutMsg reports the end of a session.
type LoggedOutMsg struct {
	Reason session.Reason
	Err    error
}

type loginResultMsg struct {
	sess *session.Session
	err  error
}

type ordersLoadedMsg struct {
	orders []api.Order
	err    error
}

type exportDoneMsg struct {
	path string
	err  error
}

type actionErrMsg struct{ err error }

type statusTickMsg time.Time

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Screen is the top-level screen being shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenOrders
	ScreenExpired
)

// Model is the main Bubble Tea model for the application.
type Model struct {
	screen   Screen
	quitting bool
	loading  bool

	deps Deps
	keys components.KeyMap
	help help.Model

	header  *components.Header
	status  *components.StatusBar
	login   *components.LoginForm
	orders  *components.OrderList
	overlay components.SessionTimeoutOverlay
	spinner components.Spinner

	user   api.User
	width  int
	height int
	log    *log.Logger
}

// New creates the model on the login screen.
func New(deps Deps) Model {
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme("auto")
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := Model{
		screen:  ScreenLogin,
		deps:    deps,
		keys:    components.DefaultKeyMap(),
		help:    help.New(),
		header:  components.NewHeader(deps.Theme),
		status:  components.NewStatusBar(deps.Theme),
		login:   components.NewLoginForm(deps.Theme),
		orders:  components.NewOrderList(deps.Theme, deps.Money),
		overlay: components.NewSessionTimeoutOverlay(deps.Theme),
		spinner: components.NewSpinner("Loading orders"),
		log:     logger,
	}
	m.header.Store = deps.StoreURL
	if deps.Email != "" {
		m.login.SetEmail(deps.Email)
		m.login.Reset()
	}
	return m
}

// Init starts the status refresh loop.
func (m Model) Init() tea.Cmd {
	return statusTick()
}

// Screen returns the current screen.
func (m Model) Screen() Screen {
	return m.screen
}

func statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}
