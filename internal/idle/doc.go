// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle implements the idle-session monitor: after a period without
// user activity it warns with a countdown and, unless the user chooses to
// stay logged in, forces a logout through the session controller.
//
// # Phases
//
//	Active  --(no activity for TotalTimeout-WarningLeadTime)--> Warning
//	Active  --(activity)-------------------------------------> Active (clock reset)
//	Warning --(StayLoggedIn / Dismiss)------------------------> Active (clock reset)
//	Warning --(countdown reaches zero)-----------------------> Expired
//	any     --(LogoutNow)------------------------------------> Expired
//
// Raw activity during Warning does not dismiss the warning; a stray mouse
// movement must not keep an unattended session alive.
//
// # Usage
//
//	mon, err := idle.New(idle.DefaultConfig(), controller,
//	    idle.WithActivitySource(src),
//	    idle.OnWarning(func(secs int) { ... }),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := mon.Start(); err != nil {
//	    return err
//	}
//	defer mon.Stop()
package idle
