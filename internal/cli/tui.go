// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/jeranaias/storefront-tui/internal/activity"
	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/audit"
	"github.com/jeranaias/storefront-tui/internal/config"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/logging"
	"github.com/jeranaias/storefront-tui/internal/prefs"
	"github.com/jeranaias/storefront-tui/internal/session"
	"github.com/jeranaias/storefront-tui/internal/ui/app"
	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

// runTUI wires the session stack and runs the interactive program. Logs go
// to the log file since the terminal belongs to the TUI.
func runTUI(cmd *cobra.Command, e *env) error {
	if !IsTTY() || !IsStdoutTTY() {
		return &TTYRequiredError{Operation: "run the TUI"}
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	exportDir, _ := cmd.Flags().GetString("export-dir")
	locale, _ := cmd.Flags().GetString("locale")
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid --locale %q: %w", locale, err)
	}
	if exportDir, err = ValidateOutputPath(exportDir); err != nil {
		return fmt.Errorf("invalid --export-dir: %w", err)
	}

	level := cfg.Logging.Level
	if e.logLevel != "" {
		level = e.logLevel
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, logFile, err := logging.OpenFile(logPath, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.close()

	bridge := activity.NewBridge(cfg.UI.Mouse)
	dispatcher := app.NewDispatcher(app.DefaultDispatchBuffer, logger)
	defer dispatcher.Close()

	ctrl, err := session.NewController(stack.client, stack.prefs,
		session.WithIdleConfig(cfg.IdleConfig()),
		session.WithAuditor(stack.audit),
		session.WithLogger(logger),
		session.WithActivitySource(bridge),
		session.WithHooks(dispatcher.Hooks()),
	)
	if err != nil {
		return err
	}
	// Quitting mid-session still revokes the token and records the logout.
	defer ctrl.Close()

	logger.Info("TUI_START", "version", Version, "api", cfg.API.BaseURL,
		"idle_timeout", cfg.IdleConfig().TotalTimeout, "mouse", cfg.UI.Mouse)

	model := app.New(app.Deps{
		Sessions:  ctrl,
		Store:     stack.client,
		Bridge:    bridge,
		Theme:     styles.NewTheme(cfg.UI.Theme),
		Money:     export.NewMoneyFormatter(tag),
		ExportDir: exportDir,
		StoreURL:  cfg.API.BaseURL,
		Email:     email,
		Logger:    logger,
	})
	return app.Run(ctx, model, dispatcher, cfg.UI.Mouse)
}

// stack holds the long-lived resources of a signed-in command.
type stack struct {
	client *api.Client
	prefs  *prefs.Store
	audit  *audit.Store
}

// openStack opens preferences (watched for changes made by other
// processes), the audit store and the API client.
func openStack(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stack, error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	p, err := prefs.OpenDir(dir, prefs.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := p.Watch(ctx); err != nil {
		logger.Warn("PREFS_WATCH_FAILED", "err", err)
	}

	a, err := audit.OpenDir(dir)
	if err != nil {
		p.Close()
		return nil, err
	}

	client := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.APITimeout()),
		api.WithMaxRetries(cfg.API.MaxRetries),
		api.WithRateLimit(cfg.API.RequestsPerSecond),
		api.WithLogger(logger),
	)
	return &stack{client: client, prefs: p, audit: a}, nil
}

func (s *stack) close() {
	s.prefs.Close()
	s.audit.Close()
}
