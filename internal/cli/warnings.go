// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/storefront-tui/internal/prefs"
)

// newWarningsCmd toggles the idle warning preference. A running TUI picks
// the change up without restarting.
func newWarningsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warnings [on|off|status]",
		Short: "Show or change whether the idle warning is shown",
		Long: `Show or change whether the idle warning is shown before sign-out.

With warnings off there is no idle timeout at all: no countdown appears
and inactive sessions stay signed in. Turning warnings back on restarts
the timeout.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "status"
			if len(args) == 1 {
				action = args[0]
			}
			return OutputJSON(e.out, e.jsonMode, "warnings", func() (interface{}, error) {
				return runWarnings(e, action)
			})
		},
	}
	return cmd
}

func runWarnings(e *env, action string) (*WarningsData, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := prefs.OpenDir(dir, prefs.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	switch action {
	case "status":
	case "on":
		err = store.SetSuppressIdleWarning(false)
	case "off":
		err = store.SetSuppressIdleWarning(true)
	default:
		return nil, fmt.Errorf("unknown action %q (want on, off or status)", action)
	}
	if err != nil {
		return nil, err
	}

	data := &WarningsData{
		WarningsEnabled: !store.SuppressIdleWarning(),
		PrefsPath:       store.Path(),
	}
	if !e.jsonMode {
		state := SuccessStyle.Render("on")
		if !data.WarningsEnabled {
			state = WarningStyle.Render("off")
		}
		fmt.Fprintf(e.out, "%s %s\n", RenderLabel("Idle warnings"), state)
		fmt.Fprintln(e.out, DimStyle.Render(data.PrefsPath))
	}
	return data, nil
}
