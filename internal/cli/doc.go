// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the storefront command line.
//
// Running storefront without a subcommand starts the TUI. Subcommands
// manage the idle warning preference, configuration, the session audit
// trail and order exports:
//
//	storefront warnings [on|off|status]
//	storefront config [show|path|validate|get|set]
//	storefront audit [--limit N] [--session ID]
//	storefront orders list
//	storefront orders export --format csv|json|md
//	storefront orders receipt ID
//	storefront version
//
// Every subcommand accepts --json and then prints a JSONResponse envelope.
package cli
