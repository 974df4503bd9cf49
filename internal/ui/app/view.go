// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/lipgloss"
)

// View renders the current screen. The idle overlay replaces the whole
// screen while it is visible.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	switch m.screen {
	case ScreenLogin:
		return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), m.login.View())
	case ScreenExpired:
		return m.deps.Theme.ExpiredBox.Render("Session expired. Press Enter to sign in again.")
	}

	body := m.orders.View()
	if m.spinner.IsActive() {
		body = m.spinner.View() + "\n\n" + body
	}
	body = lipgloss.NewStyle().Padding(0, 1).Height(m.bodyHeight()).Render(body)

	m.status.Help = ""
	if !m.help.ShowAll {
		m.status.Help = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	parts := []string{m.header.View(), body}
	if m.help.ShowAll {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	}
	parts = append(parts, m.status.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) bodyHeight() int {
	h := m.height - 2
	if m.help.ShowAll {
		h -= len(m.keys.FullHelp()[0])
	}
	if h < 1 {
		h = 1
	}
	return h
}
