// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the storefront TUI.

All colors use Lip Gloss AdaptiveColor so they follow the terminal
background. NewTheme resolves the background once ("auto" asks the
terminal through termenv) and builds every style the screens use.

# Accessibility

State is never conveyed by color alone. StatusIndicators pair each status
color with an ASCII marker:

	[OK] success   [X] error   [!] warning   [i] info

Setting NO_COLOR forces the ASCII color profile.
*/
package styles
