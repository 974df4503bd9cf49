// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// urgentSeconds is where the countdown switches to the danger color.
const urgentSeconds = 10

// Button identifies a button of the warning dialog.
type Button int

const (
	ButtonStay Button = iota
	ButtonLogout
	buttonCount
)

// SessionTimeoutOverlay is the idle warning dialog and the expired notice.
// It only renders state and turns keys into action messages; the session
// controller decides what happens.
type SessionTimeoutOverlay struct {
	// State
	visible          bool
	expired          bool
	secondsRemaining int
	suppressed       bool
	focus            Button

	keys  TimeoutKeyMap
	theme *styles.Theme

	// Dimensions
	width  int
	height int
}

// NewSessionTimeoutOverlay creates a hidden overlay.
func NewSessionTimeoutOverlay(theme *styles.Theme) SessionTimeoutOverlay {
	return SessionTimeoutOverlay{
		keys:  DefaultTimeoutKeyMap(),
		theme: theme,
	}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Show opens the warning with the countdown at secs. Focus starts on
// "Stay signed in".
func (o *SessionTimeoutOverlay) Show(secs int, suppressed bool) {
	o.visible = true
	o.expired = false
	o.secondsRemaining = secs
	o.suppressed = suppressed
	o.focus = ButtonStay
}

// UpdateSeconds updates the countdown.
func (o *SessionTimeoutOverlay) UpdateSeconds(secs int) {
	o.secondsRemaining = secs
}

// SetSuppressed updates the "don't warn again" checkbox.
func (o *SessionTimeoutOverlay) SetSuppressed(v bool) {
	o.suppressed = v
}

// Expire switches the overlay to the expired notice.
func (o *SessionTimeoutOverlay) Expire() {
	o.visible = true
	o.expired = true
	o.secondsRemaining = 0
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// IsVisible returns whether the overlay is currently visible.
func (o SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the expired notice is showing.
func (o SessionTimeoutOverlay) IsExpired() bool {
	return o.expired
}

// SecondsRemaining returns the displayed countdown.
func (o SessionTimeoutOverlay) SecondsRemaining() int {
	return o.secondsRemaining
}

// Suppressed returns the checkbox state.
func (o SessionTimeoutOverlay) Suppressed() bool {
	return o.suppressed
}

// Focus returns the focused button.
func (o SessionTimeoutOverlay) Focus() Button {
	return o.focus
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// StayLoggedInMsg asks the controller to acknowledge the warning.
type StayLoggedInMsg struct{}

// DismissWarningMsg reports that the dialog was closed without choosing.
type DismissWarningMsg struct{}

// LogoutNowMsg asks the controller to end the session immediately.
type LogoutNowMsg struct{}

// ToggleSuppressMsg asks the controller to persist the new preference.
type ToggleSuppressMsg struct {
	Suppressed bool
}

// SignInAgainMsg is sent from the expired notice.
type SignInAgainMsg struct{}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Update handles messages for the overlay. Keys other than the dialog's
// bindings are swallowed: incidental input must not end the warning.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible {
			return o, nil
		}
		if o.expired {
			if msg.Type == tea.KeyEnter {
				o.Hide()
				return o, send(SignInAgainMsg{})
			}
			return o, nil
		}

		switch {
		case key.Matches(msg, o.keys.Stay):
			o.Hide()
			return o, send(StayLoggedInMsg{})
		case key.Matches(msg, o.keys.Logout):
			return o, send(LogoutNowMsg{})
		case key.Matches(msg, o.keys.Suppress):
			o.suppressed = !o.suppressed
			return o, send(ToggleSuppressMsg{Suppressed: o.suppressed})
		case key.Matches(msg, o.keys.Dismiss):
			o.Hide()
			return o, send(DismissWarningMsg{})
		case key.Matches(msg, o.keys.Next):
			o.focus = (o.focus + 1) % buttonCount
		case key.Matches(msg, o.keys.Prev):
			o.focus = (o.focus + buttonCount - 1) % buttonCount
		case key.Matches(msg, o.keys.Select):
			if o.focus == ButtonLogout {
				return o, send(LogoutNowMsg{})
			}
			o.Hide()
			return o, send(StayLoggedInMsg{})
		}
	}

	return o, nil
}

// View renders the overlay, or "" when hidden.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o SessionTimeoutOverlay) dims() (width, height, boxWidth int) {
	width, height = o.width, o.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	boxWidth = width - 8
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > 60 {
		boxWidth = 60
	}
	return width, height, boxWidth
}

func (o SessionTimeoutOverlay) viewWarning() string {
	width, height, boxWidth := o.dims()
	t := o.theme

	countdown := t.Countdown
	if o.secondsRemaining <= urgentSeconds {
		countdown = t.StatusDanger
	}

	msg := lipgloss.NewStyle().Width(boxWidth - 8).Align(lipgloss.Center).Render(
		t.Body.Render("You will be signed out in ") +
			countdown.Render(FormatCountdown(o.secondsRemaining)))

	stay, logout := t.Button, t.Button
	if o.focus == ButtonStay {
		stay = t.ButtonActive
	} else {
		logout = t.ButtonActive
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		stay.Render("Stay signed in (s)"),
		logout.Render("Sign out now (l)"),
	)

	box := "[ ]"
	if o.suppressed {
		box = "[x]"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		t.StatusWarn.Render(styles.StatusIndicators.Warning+" Are you still there?"),
		"",
		msg,
		"",
		buttons,
		"",
		t.Muted.Render(box+" Don't warn me again (d)"),
		t.Muted.Render("Tab switch  Enter select  Esc close"),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		t.WarningBox.Width(boxWidth).Render(content),
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

func (o SessionTimeoutOverlay) viewExpired() string {
	width, height, boxWidth := o.dims()
	t := o.theme

	content := lipgloss.JoinVertical(lipgloss.Center,
		t.StatusDanger.Render(styles.StatusIndicators.Error+" Session expired"),
		"",
		lipgloss.NewStyle().Width(boxWidth-8).Align(lipgloss.Center).
			Render(t.Body.Render("You were signed out after a period of inactivity.")),
		"",
		t.Muted.Render("Enter sign in again  q quit"),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		t.ExpiredBox.Width(boxWidth).Render(content),
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// FormatCountdown formats seconds as M:SS.
func FormatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
