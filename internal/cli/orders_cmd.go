// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/session"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// PasswordEnv supplies the password for non-interactive order commands.
const PasswordEnv = "STOREFRONT_PASSWORD"

// OrdersData is returned by orders list.
type OrdersData struct {
	Orders []api.Order `json:"orders"`
	Count  int         `json:"count"`
}

// ReceiptData is returned by orders receipt.
type ReceiptData struct {
	OrderID  string `json:"order_id"`
	Markdown string `json:"markdown"`
}

// orderFlags are shared by the orders subcommands.
type orderFlags struct {
	email  string
	locale string
	max    int
}

func newOrdersCmd(e *env) *cobra.Command {
	f := &orderFlags{}
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, export and print orders without the TUI",
		Long: `List, export and print orders without the TUI.

Each command signs in, does its work and signs out. The password is read
from $` + PasswordEnv + ` when set, otherwise from the terminal.`,
	}
	cmd.PersistentFlags().StringVar(&f.email, "email", os.Getenv("STOREFRONT_EMAIL"), "account e-mail")
	cmd.PersistentFlags().StringVar(&f.locale, "locale", "en-US", "locale for amounts (BCP 47)")
	cmd.PersistentFlags().IntVar(&f.max, "max", 200, "maximum number of orders to fetch")

	cmd.AddCommand(newOrdersListCmd(e, f), newOrdersExportCmd(e, f), newOrdersReceiptCmd(e, f))
	return cmd
}

func newOrdersListCmd(e *env, f *orderFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return OutputJSON(e.out, e.jsonMode, "orders list", func() (interface{}, error) {
				var orders []api.Order
				err := withSession(cmd.Context(), e, f, func(ctx context.Context, c *api.Client) error {
					var err error
					orders, err = c.AllOrders(ctx, f.max)
					return err
				})
				if err != nil {
					return nil, err
				}
				if orders == nil {
					orders = []api.Order{}
				}
				if !e.jsonMode {
					printOrders(e, orders, f.locale)
				}
				return &OrdersData{Orders: orders, Count: len(orders)}, nil
			})
		},
	}
}

func newOrdersExportCmd(e *env, f *orderFlags) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export orders to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return OutputJSON(e.out, e.jsonMode, "orders export", func() (interface{}, error) {
				dir, err := ValidateOutputPath(out)
				if err != nil {
					return nil, fmt.Errorf("invalid --out: %w", err)
				}
				opts := &export.Options{OutputDir: dir, Locale: f.locale}
				exp, err := export.ByFormat(format, opts)
				if err != nil {
					return nil, err
				}

				var orders []api.Order
				err = withSession(cmd.Context(), e, f, func(ctx context.Context, c *api.Client) error {
					var err error
					orders, err = c.AllOrders(ctx, f.max)
					return err
				})
				if err != nil {
					return nil, err
				}
				path, err := export.ExportToFile(orders, exp, opts)
				if err != nil {
					return nil, err
				}
				if !e.jsonMode {
					fmt.Fprintf(e.out, "%s Exported %d orders to %s\n", RenderStatus("ok"), len(orders), path)
				}
				return &ExportData{Path: path, Format: strings.ToLower(format), Orders: len(orders)}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format ("+strings.Join(export.Formats(), ", ")+")")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}

func newOrdersReceiptCmd(e *env, f *orderFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <order-id>",
		Short: "Print a receipt for one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return OutputJSON(e.out, e.jsonMode, "orders receipt", func() (interface{}, error) {
				var order *api.Order
				err := withSession(cmd.Context(), e, f, func(ctx context.Context, c *api.Client) error {
					var err error
					order, err = c.GetOrder(ctx, args[0])
					return err
				})
				if err != nil {
					return nil, err
				}
				md, err := export.NewMarkdownExporter(&export.Options{Locale: f.locale}).Receipt(order)
				if err != nil {
					return nil, err
				}
				if !e.jsonMode {
					fmt.Fprint(e.out, renderMarkdown(md))
				}
				return &ReceiptData{OrderID: order.ID, Markdown: md}, nil
			})
		},
	}
}

// withSession signs in through a session controller so the sign-in and
// sign-out land in the audit log like TUI sessions do.
func withSession(ctx context.Context, e *env, f *orderFlags, fn func(context.Context, *api.Client) error) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	creds, err := credentials(e, f)
	if err != nil {
		return err
	}

	st, err := openStack(ctx, cfg, e.log)
	if err != nil {
		return err
	}
	defer st.close()

	ctrl, err := session.NewController(st.client, st.prefs,
		session.WithIdleConfig(cfg.IdleConfig()),
		session.WithAuditor(st.audit),
		session.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	sess, err := ctrl.Login(ctx, creds)
	if err != nil {
		return err
	}
	e.log.Debug("ORDERS_SESSION", "session", sess.ID, "user", sess.User.DisplayName())
	return fn(ctx, st.client)
}

func credentials(e *env, f *orderFlags) (api.Credentials, error) {
	email := strings.TrimSpace(f.email)
	if email == "" {
		var err error
		if email, err = e.prompt.Line("E-mail: "); err != nil {
			return api.Credentials{}, fmt.Errorf("no e-mail given (pass --email or set STOREFRONT_EMAIL): %w", err)
		}
		email = strings.TrimSpace(email)
	}

	password := os.Getenv(PasswordEnv)
	if password == "" {
		var err error
		if password, err = e.prompt.Password("Password: "); err != nil {
			return api.Credentials{}, err
		}
	}
	if email == "" || password == "" {
		return api.Credentials{}, errors.New("e-mail and password are required")
	}
	return api.Credentials{Email: email, Password: password}, nil
}

func printOrders(e *env, orders []api.Order, locale string) {
	if len(orders) == 0 {
		fmt.Fprintln(e.out, DimStyle.Render("No orders."))
		return
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	money := export.NewMoneyFormatter(tag)

	fmt.Fprintf(e.out, "%-12s %-12s %-11s %5s %14s  %s\n", "ORDER", "PLACED", "STATUS", "ITEMS", "TOTAL", "ID")
	fmt.Fprintln(e.out, RenderSeparator(80))
	for _, o := range orders {
		fmt.Fprintf(e.out, "%-12s %-12s %-11s %5d %14s  %s\n",
			util.TruncateRunes(o.Number, 12),
			o.PlacedAt.Local().Format("2006-01-02"),
			string(o.Status),
			o.ItemCount(),
			money.Format(o.Total),
			DimStyle.Render(o.ID),
		)
	}
}

// renderMarkdown renders md for the terminal, falling back to the raw text
// when output is not a terminal or rendering fails.
func renderMarkdown(md string) string {
	if !IsStdoutTTY() {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
