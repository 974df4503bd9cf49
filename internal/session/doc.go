// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authenticated session of the storefront client.
//
// A Controller logs in against the backend, starts an idle monitor for the
// new session and tears both down again on logout, whether the user asked
// for it or the monitor expired the session. The "don't warn me" preference
// is read from the prefs store at every decision point and pushed to the
// running monitor when it changes.
//
// # Key Types
//
//   - Controller: Login, Logout and the warning-suppression preference
//   - Session: One authenticated login; the monitor's logout target
//   - Reason: Why a session ended
//
// # Usage
//
//	ctrl, err := session.NewController(client, store,
//	    session.WithIdleConfig(cfg.IdleConfig()),
//	    session.WithAuditor(auditStore),
//	)
//	sess, err := ctrl.Login(ctx, api.Credentials{Email: email, Password: pw})
//	...
//	ctrl.Logout()
package session
