// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/storefront-tui/internal/audit"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// AuditData is returned by the audit command.
type AuditData struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

func newAuditCmd(e *env) *cobra.Command {
	var (
		limit   int
		session string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent session events (sign-ins, warnings, sign-outs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return OutputJSON(e.out, e.jsonMode, "audit", func() (interface{}, error) {
				return runAudit(cmd, e, limit, session)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", audit.DefaultLimit, "maximum number of events")
	cmd.Flags().StringVar(&session, "session", "", "only events of this session ID")
	return cmd
}

func runAudit(cmd *cobra.Command, e *env, limit int, session string) (*AuditData, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	store, err := audit.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var events []audit.Event
	if session != "" {
		events, err = store.BySession(cmd.Context(), session)
	} else {
		events, err = store.Recent(cmd.Context(), limit)
	}
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []audit.Event{}
	}

	if !e.jsonMode {
		printEvents(e, events)
	}
	return &AuditData{Events: events, Count: len(events)}, nil
}

func printEvents(e *env, events []audit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(e.out, DimStyle.Render("No session events recorded."))
		return
	}
	fmt.Fprintln(e.out, TitleStyle.Render("Session events"))
	fmt.Fprintf(e.out, "%-20s %-6s %-9s %-28s %s\n", "TIME", "AGE", "SESSION", "EVENT", "DETAIL")
	fmt.Fprintln(e.out, RenderSeparator(80))
	for _, ev := range events {
		fmt.Fprintf(e.out, "%-20s %-6s %-9s %s %s\n",
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(time.Since(ev.CreatedAt)),
			shortID(ev.SessionID),
			eventStyle(ev.Type).Render(fmt.Sprintf("%-28s", ev.Type)),
			util.TruncateRunes(ev.Detail, 40),
		)
	}
}

// shortID keeps the first block of a session UUID. --json prints full IDs.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func eventStyle(t audit.EventType) lipgloss.Style {
	switch t {
	case audit.EventExpired, audit.EventLoginFailed, audit.EventLogoutFailed:
		return ErrorStyle
	case audit.EventWarning, audit.EventWarningsOff:
		return WarningStyle
	case audit.EventLogin, audit.EventExtended:
		return SuccessStyle
	default:
		return ValueStyle
	}
}
