// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/storefront-tui/internal/ui/styles"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand, signed-in user and store address.
type Header struct {
	Title string
	User  string
	Store string
	Width int
	theme *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "storefront",
		Width: 80,
		theme: theme,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	left := t.HeaderBrand.Render(h.Title)
	if h.User != "" {
		left += t.HeaderUser.Render("  [" + util.Initials(h.User) + "] " + h.User)
	}

	room := h.Width - 2 - lipgloss.Width(left) - 2
	var right string
	if h.Store != "" && room > 8 && !t.Narrow() {
		right = t.Muted.Render(util.TruncateWidth(h.Store, room))
	}

	gap := h.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(h.Width).MaxWidth(h.Width).
		Render(left + strings.Repeat(" ", gap) + right)
}
