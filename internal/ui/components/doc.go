// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components of the storefront
// TUI: header, status bar, login form, order table and the idle warning
// overlay.
//
// Components render state and translate keys into messages. They never call
// the session controller themselves; the app model does that.
package components
