// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

func testTheme(t *testing.T) *styles.Theme {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	return styles.NewTheme("dark")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func msgOf(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{60, "1:00"},
		{119, "1:59"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.secs); got != tt.want {
			t.Errorf("FormatCountdown(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestOverlay_HiddenIgnoresKeys(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o, cmd := o.Update(runes("s"))
	if cmd != nil {
		t.Error("hidden overlay should not emit commands")
	}
	if o.View() != "" {
		t.Error("hidden overlay should render nothing")
	}
}

func TestOverlay_StayKey(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(60, false)

	o, cmd := o.Update(runes("s"))
	if _, ok := msgOf(t, cmd).(StayLoggedInMsg); !ok {
		t.Errorf("expected StayLoggedInMsg")
	}
	if o.IsVisible() {
		t.Error("overlay should hide after staying")
	}
}

func TestOverlay_LogoutKeyKeepsDialog(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(30, false)

	o, cmd := o.Update(runes("l"))
	if _, ok := msgOf(t, cmd).(LogoutNowMsg); !ok {
		t.Errorf("expected LogoutNowMsg")
	}
	if !o.IsVisible() {
		t.Error("overlay stays until the session reports expiry")
	}
}

func TestOverlay_ToggleSuppress(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(30, false)

	o, cmd := o.Update(runes("d"))
	msg, ok := msgOf(t, cmd).(ToggleSuppressMsg)
	if !ok || !msg.Suppressed {
		t.Fatalf("got %#v, want ToggleSuppressMsg{Suppressed: true}", msg)
	}
	if !o.IsVisible() {
		t.Error("toggling must not close the warning")
	}
	if !strings.Contains(o.View(), "[x]") {
		t.Error("checkbox should render checked")
	}

	_, cmd = o.Update(runes("d"))
	if msg := msgOf(t, cmd).(ToggleSuppressMsg); msg.Suppressed {
		t.Error("second toggle should clear suppression")
	}
}

func TestOverlay_DismissWithEsc(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(30, false)

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := msgOf(t, cmd).(DismissWarningMsg); !ok {
		t.Error("expected DismissWarningMsg")
	}
	if o.IsVisible() {
		t.Error("overlay should hide on dismiss")
	}
}

func TestOverlay_IncidentalKeysDoNotDismiss(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(30, false)

	for _, k := range []tea.KeyMsg{runes("x"), runes("q"), {Type: tea.KeyUp}} {
		var cmd tea.Cmd
		o, cmd = o.Update(k)
		if cmd != nil {
			t.Errorf("key %q should not produce an action", k.String())
		}
	}
	if !o.IsVisible() {
		t.Error("incidental keys must not hide the warning")
	}
}

func TestOverlay_FocusAndSelect(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(30, false)
	if o.Focus() != ButtonStay {
		t.Fatal("focus should start on stay")
	}

	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyTab})
	if o.Focus() != ButtonLogout {
		t.Fatal("tab should move focus to logout")
	}
	_, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := msgOf(t, cmd).(LogoutNowMsg); !ok {
		t.Error("enter on logout should request logout")
	}

	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if o.Focus() != ButtonStay {
		t.Fatal("shift+tab should wrap back to stay")
	}
	_, cmd = o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := msgOf(t, cmd).(StayLoggedInMsg); !ok {
		t.Error("enter on stay should stay logged in")
	}
}

func TestOverlay_ViewShowsCountdown(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.SetSize(80, 24)
	o.Show(75, false)
	if !strings.Contains(o.View(), "1:15") {
		t.Error("warning should show the countdown as M:SS")
	}

	o.UpdateSeconds(9)
	if !strings.Contains(o.View(), "0:09") {
		t.Error("countdown should update")
	}
}

func TestOverlay_Expired(t *testing.T) {
	o := NewSessionTimeoutOverlay(testTheme(t))
	o.Show(1, false)
	o.Expire()

	if !o.IsExpired() || !strings.Contains(o.View(), "Session expired") {
		t.Fatal("overlay should show the expired notice")
	}

	o, cmd := o.Update(runes("s"))
	if cmd != nil {
		t.Error("dialog keys are inactive once expired")
	}
	o, cmd = o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := msgOf(t, cmd).(SignInAgainMsg); !ok {
		t.Error("enter should ask to sign in again")
	}
	if o.IsVisible() {
		t.Error("overlay should hide after sign-in request")
	}
}
