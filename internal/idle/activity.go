// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

// Kind is a qualifying user-activity event kind.
type Kind int

const (
	PointerMove Kind = iota
	KeyDown
	MouseDown
	TouchStart
)

// Kinds lists every qualifying activity kind, in subscription order.
func Kinds() []Kind {
	return []Kind{PointerMove, KeyDown, MouseDown, TouchStart}
}

func (k Kind) String() string {
	switch k {
	case PointerMove:
		return "pointer-move"
	case KeyDown:
		return "key-down"
	case MouseDown:
		return "mouse-down"
	case TouchStart:
		return "touch-start"
	default:
		return "unknown"
	}
}

// Subscription is a registered activity listener.
type Subscription interface {
	// Unsubscribe removes the listener. Safe to call more than once.
	Unsubscribe()
}

// ActivitySource delivers user-interaction signals. A source may refuse a
// kind it cannot observe; the monitor keeps the listeners that succeeded.
type ActivitySource interface {
	Subscribe(kind Kind, fn func(Kind)) (Subscription, error)
}

// SessionController holds the authenticated session the monitor guards.
type SessionController interface {
	// Logout ends the session. It must be idempotent.
	Logout() error

	// WarningsSuppressed reports the persisted "don't show again" preference.
	// It is queried at every decision point and must not call back into the
	// monitor.
	WarningsSuppressed() bool
}
