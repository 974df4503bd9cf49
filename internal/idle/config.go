// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultTotalTimeout is the allowed inactivity before a forced logout.
	DefaultTotalTimeout = 15 * time.Minute

	// DefaultWarningLeadTime is how long before the timeout the warning shows.
	DefaultWarningLeadTime = 2 * time.Minute
)

var (
	// ErrInvalidConfig is returned by New when the timing invariant
	// 0 < WarningLeadTime < TotalTimeout does not hold.
	ErrInvalidConfig = errors.New("invalid idle session config")

	// ErrAlreadyStarted is returned by Start on a running monitor.
	ErrAlreadyStarted = errors.New("idle monitor already started")

	// ErrStopped is returned by Start on a monitor that was torn down.
	ErrStopped = errors.New("idle monitor stopped")

	// ErrNoController is returned by New without a session controller.
	ErrNoController = errors.New("idle monitor requires a session controller")
)

// Config is the immutable timing configuration of a Monitor.
type Config struct {
	// TotalTimeout is the inactivity period after which the session is
	// logged out.
	TotalTimeout time.Duration

	// WarningLeadTime is how long before TotalTimeout the warning starts.
	// The countdown shown to the user covers exactly this period.
	WarningLeadTime time.Duration
}

// DefaultConfig returns a 15 minute timeout with a 2 minute warning.
func DefaultConfig() Config {
	return Config{
		TotalTimeout:    DefaultTotalTimeout,
		WarningLeadTime: DefaultWarningLeadTime,
	}
}

// Validate checks 0 < WarningLeadTime < TotalTimeout.
func (c Config) Validate() error {
	if c.WarningLeadTime <= 0 {
		return fmt.Errorf("%w: warning lead time must be positive, got %v", ErrInvalidConfig, c.WarningLeadTime)
	}
	if c.WarningLeadTime >= c.TotalTimeout {
		return fmt.Errorf("%w: warning lead time %v must be shorter than total timeout %v",
			ErrInvalidConfig, c.WarningLeadTime, c.TotalTimeout)
	}
	return nil
}

// WarningAfter is the inactivity period that triggers the warning.
func (c Config) WarningAfter() time.Duration {
	return c.TotalTimeout - c.WarningLeadTime
}

// CountdownSeconds is the countdown value the warning starts at.
func (c Config) CountdownSeconds() int {
	return int(math.Ceil(c.WarningLeadTime.Seconds()))
}

// firstTick is the delay before the first countdown decrement. Whole-second
// lead times tick after one second; fractional ones absorb the remainder so
// the countdown still reaches zero exactly at TotalTimeout.
func (c Config) firstTick() time.Duration {
	return c.WarningLeadTime - time.Duration(c.CountdownSeconds()-1)*time.Second
}
