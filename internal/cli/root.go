// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/storefront-tui/internal/config"
	"github.com/jeranaias/storefront-tui/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// env is the state shared by all commands of one invocation.
type env struct {
	configPath string
	logLevel   string
	jsonMode   bool

	cfg     *config.Config
	loadErr error
	log     *log.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	prompt prompter
}

// config returns the loaded configuration or the error that prevented
// loading it.
func (e *env) config() (*config.Config, error) {
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return e.cfg, nil
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command with every subcommand registered.
// Each call returns an independent tree, so tests can run commands in
// isolation.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		prompt: terminalPrompter{in: os.Stdin, out: os.Stderr},
	})
}

func newRootCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Terminal client for your store's orders",
		Long: `storefront signs you in to your store and shows your order history.

Signed-in sessions end after a period of inactivity. A warning with a
countdown appears first; choose "Stay signed in" to keep working.

Running without a subcommand launches the interactive TUI.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.out = cmd.OutOrStdout()
			e.errOut = cmd.ErrOrStderr()
			if e.configPath != "" {
				e.cfg, e.loadErr = config.LoadFromPath(e.configPath)
			} else {
				e.cfg, e.loadErr = config.Load()
			}

			level := e.logLevel
			if level == "" {
				level = "warn"
			}
			logger, err := logging.New(e.errOut, level)
			if err != nil {
				return err
			}
			e.log = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}

	cmd.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default is the storefront config directory)")
	cmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&e.jsonMode, "json", false, "print machine-readable JSON")
	cmd.Flags().String("email", os.Getenv("STOREFRONT_EMAIL"), "prefill the sign-in e-mail")
	cmd.Flags().String("export-dir", ".", "directory for exports and receipts saved from the TUI")
	cmd.Flags().String("locale", "en-US", "locale for amounts (BCP 47)")

	cmd.AddCommand(
		newWarningsCmd(e),
		newConfigCmd(e),
		newAuditCmd(e),
		newOrdersCmd(e),
		newVersionCmd(e),
	)
	return cmd
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			return OutputJSON(e.out, e.jsonMode, "version", func() (interface{}, error) {
				if !e.jsonMode {
					fmt.Fprintf(e.out, "storefront %s\n", data.Version)
					fmt.Fprintf(e.out, "  commit: %s\n  built:  %s\n  go:     %s\n",
						data.GitCommit, data.BuildDate, data.GoVersion)
				}
				return data, nil
			})
		},
	}
}
