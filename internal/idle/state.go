// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import "time"

// Phase is the discrete state of the idle-session state machine.
type Phase int

const (
	// Active means the user is considered present; the inactivity timer runs.
	Active Phase = iota
	// Warning means the countdown to a forced logout is running.
	Warning
	// Expired is terminal: the session was logged out.
	Expired
)

// String returns a string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case Active:
		return "ACTIVE"
	case Warning:
		return "WARNING"
	case Expired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// State is a point-in-time snapshot of a Monitor.
type State struct {
	Phase          Phase
	LastActivityAt time.Time

	// SecondsRemaining is only meaningful while Phase is Warning.
	SecondsRemaining int

	// Suppressed mirrors the controller's "don't show again" preference at
	// the time of the snapshot.
	Suppressed bool
}
