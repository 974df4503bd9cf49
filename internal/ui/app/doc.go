// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the top-level Bubble Tea model of the storefront TUI.
//
// Every message passes through the activity bridge first, which feeds the
// idle monitor of the signed-in session. Session events (warning, countdown,
// logout) come back as messages through a Dispatcher attached to the
// program.
package app
