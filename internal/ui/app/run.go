// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the program on the alternate screen and blocks until it exits
// or ctx is cancelled. Session events queued on d are delivered to it.
// With mouse enabled all motion is reported, since pointer movement counts
// as activity.
func Run(ctx context.Context, m Model, d *Dispatcher, mouse bool) error {
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}

	p := tea.NewProgram(m, opts...)
	d.Attach(p)
	_, err := p.Run()
	return err
}
