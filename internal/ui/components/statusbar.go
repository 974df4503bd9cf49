// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/storefront-tui/internal/idle"
	"github.com/jeranaias/storefront-tui/internal/ui/styles"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom bar: session phase, idle time, the warning
// preference, a transient message and the short help.
type StatusBar struct {
	Phase            idle.Phase
	IdleFor          time.Duration
	SecondsRemaining int
	Suppressed       bool
	Message          string
	MessageIsError   bool
	Help             string
	Width            int
	theme            *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetState copies the monitor snapshot into the bar.
func (s *StatusBar) SetState(st idle.State, idleFor time.Duration) {
	s.Phase = st.Phase
	s.SecondsRemaining = st.SecondsRemaining
	s.Suppressed = st.Suppressed
	s.IdleFor = idleFor
}

// SetMessage shows a transient message. An empty message clears it.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.Message = msg
	s.MessageIsError = isError
}

// View renders the status bar. The help text is dropped first when the
// terminal is too narrow, then the message is truncated.
func (s *StatusBar) View() string {
	t := s.theme
	left := s.renderPhase()
	if s.Suppressed {
		left += "  " + t.Muted.Render("warnings off")
	}

	width := s.Width - 2
	used := lipgloss.Width(left)

	var right string
	if s.Help != "" && used+lipgloss.Width(s.Help)+4 <= width-lipgloss.Width(s.Message) {
		right = s.Help
	}

	var middle string
	if s.Message != "" {
		room := width - used - lipgloss.Width(right) - 4
		if room > 3 {
			text := util.TruncateWidth(s.Message, room)
			if s.MessageIsError {
				middle = t.ErrorText.Render(text)
			} else {
				middle = t.StatusOK.Render(text)
			}
		}
	}

	gap := width - used - lipgloss.Width(middle) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	line := left + "  " + middle + strings.Repeat(" ", max(gap-2, 0)) + right
	return t.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}

func (s *StatusBar) renderPhase() string {
	t := s.theme
	switch s.Phase {
	case idle.Warning:
		return t.StatusWarn.Render(fmt.Sprintf("%s %s %s",
			styles.StatusIndicators.Warning, s.Phase, FormatCountdown(s.SecondsRemaining)))
	case idle.Expired:
		return t.StatusDanger.Render(styles.StatusIndicators.Error + " " + s.Phase.String())
	default:
		return t.StatusOK.Render(styles.StatusIndicators.Success+" "+s.Phase.String()) +
			t.Muted.Render(" idle "+FormatCountdown(int(s.IdleFor/time.Second)))
	}
}
