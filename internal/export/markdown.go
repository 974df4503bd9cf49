// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/storefront-tui/internal/api"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders printable receipts, one per order.
type MarkdownExporter struct {
	options *Options
	money   *MoneyFormatter
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts, money: NewMoneyFormatter(opts.tag())}
}

// Export renders each order as a receipt, separated by rules.
func (e *MarkdownExporter) Export(orders []api.Order) ([]byte, error) {
	var sb strings.Builder
	for i := range orders {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		receipt, err := e.Receipt(&orders[i])
		if err != nil {
			return nil, err
		}
		sb.WriteString(receipt)
	}
	return []byte(sb.String()), nil
}

// Receipt renders a single order.
func (e *MarkdownExporter) Receipt(o *api.Order) (string, error) {
	if o == nil {
		return "", fmt.Errorf("order is nil")
	}
	if o.PlacedAt.IsZero() {
		return "", fmt.Errorf("order %s has no placement date", o.ID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Receipt %s\n\n", escapeMarkdown(orderLabel(*o)))
	fmt.Fprintf(&sb, "- **Placed**: %s\n", formatTimestamp(o.PlacedAt))
	fmt.Fprintf(&sb, "- **Status**: %s\n", statusLabel(o.Status))
	fmt.Fprintf(&sb, "- **Items**: %d\n\n", o.ItemCount())

	if len(o.Items) > 0 {
		sb.WriteString("| Item | SKU | Qty | Price | Total |\n")
		sb.WriteString("|------|-----|----:|------:|------:|\n")
		for _, li := range o.Items {
			fmt.Fprintf(&sb, "| %s | `%s` | %d | %s | %s |\n",
				escapeTable(li.Name), li.SKU, li.Quantity,
				e.money.Format(li.UnitPrice), e.money.Format(li.Total()))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "| | |\n|---|---:|\n")
	fmt.Fprintf(&sb, "| Subtotal | %s |\n", e.money.Format(o.Subtotal))
	fmt.Fprintf(&sb, "| Shipping | %s |\n", e.money.Format(o.Shipping))
	fmt.Fprintf(&sb, "| Tax | %s |\n", e.money.Format(o.Tax))
	fmt.Fprintf(&sb, "| **Total** | **%s** |\n", e.money.Format(o.Total))

	if addr := formatAddress(o.ShippingAddress); addr != "" {
		sb.WriteString("\n## Ship to\n\n")
		sb.WriteString(addr)
	}
	return sb.String(), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

func statusLabel(s api.OrderStatus) string {
	if s == "" {
		return "Unknown"
	}
	str := string(s)
	return strings.ToUpper(str[:1]) + str[1:]
}

func formatAddress(a api.Address) string {
	var lines []string
	for _, l := range []string{a.Name, a.Line1, a.Line2} {
		if l != "" {
			lines = append(lines, escapeMarkdown(l))
		}
	}
	city := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.Region, a.PostalCode), " "))
	if city != "" {
		lines = append(lines, escapeMarkdown(city))
	}
	if a.Country != "" {
		lines = append(lines, escapeMarkdown(a.Country))
	}
	if len(lines) == 0 {
		return ""
	}
	// Two trailing spaces force Markdown line breaks.
	return strings.Join(lines, "  \n") + "\n"
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeTable additionally escapes the column separator.
func escapeTable(s string) string {
	return strings.ReplaceAll(escapeMarkdown(s), "|", "\\|")
}
