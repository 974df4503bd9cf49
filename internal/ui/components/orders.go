// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/export"
	"github.com/jeranaias/storefront-tui/internal/ui/styles"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// =============================================================================
// ORDER LIST COMPONENT
// =============================================================================

// Column widths of the order table. The address column takes the rest.
const (
	colNumber = 12
	colDate   = 12
	colStatus = 11
	colItems  = 6
	colTotal  = 14
)

// OrderList renders the order history as a table with a cursor, and the
// selected order's lines in the detail view.
type OrderList struct {
	orders []api.Order
	cursor int
	offset int
	detail bool
	width  int
	height int
	money  *export.MoneyFormatter
	theme  *styles.Theme
}

// NewOrderList creates an empty list.
func NewOrderList(theme *styles.Theme, money *export.MoneyFormatter) *OrderList {
	return &OrderList{theme: theme, money: money}
}

// SetSize sets the area available to the table.
func (l *OrderList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampOffset()
}

// SetOrders replaces the list, keeping the cursor on the same order ID when
// it is still present.
func (l *OrderList) SetOrders(orders []api.Order) {
	var selected string
	if o := l.Selected(); o != nil {
		selected = o.ID
	}
	l.orders = orders
	l.cursor = 0
	for i, o := range orders {
		if o.ID == selected {
			l.cursor = i
			break
		}
	}
	l.clampOffset()
}

// Orders returns the listed orders.
func (l *OrderList) Orders() []api.Order {
	return l.orders
}

// Selected returns the order under the cursor, or nil.
func (l *OrderList) Selected() *api.Order {
	if l.cursor < 0 || l.cursor >= len(l.orders) {
		return nil
	}
	return &l.orders[l.cursor]
}

// Cursor returns the cursor index.
func (l *OrderList) Cursor() int {
	return l.cursor
}

// MoveUp moves the cursor up one row.
func (l *OrderList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.clampOffset()
}

// MoveDown moves the cursor down one row.
func (l *OrderList) MoveDown() {
	if l.cursor < len(l.orders)-1 {
		l.cursor++
	}
	l.clampOffset()
}

// ShowDetail switches to the selected order's detail view.
func (l *OrderList) ShowDetail(v bool) {
	l.detail = v && l.Selected() != nil
}

// InDetail reports whether the detail view is showing.
func (l *OrderList) InDetail() bool {
	return l.detail
}

func (l *OrderList) visibleRows() int {
	rows := l.height - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (l *OrderList) clampOffset() {
	rows := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the table or the detail view.
func (l *OrderList) View() string {
	if l.detail {
		return l.viewDetail()
	}
	t := l.theme
	if len(l.orders) == 0 {
		return t.Muted.Render("No orders yet.")
	}

	header := l.row("Order", "Placed", "Status", "Items", "Total", "Ship to")
	lines := []string{t.Subtitle.Render(header), t.Muted.Render(strings.Repeat("-", lipgloss.Width(header)))}

	end := l.offset + l.visibleRows()
	if end > len(l.orders) {
		end = len(l.orders)
	}
	for i := l.offset; i < end; i++ {
		o := l.orders[i]
		line := l.row(
			"#"+o.Number,
			o.PlacedAt.Local().Format("2006-01-02"),
			string(o.Status),
			fmt.Sprintf("%d", o.ItemCount()),
			l.money.Format(o.Total),
			o.ShippingAddress.City,
		)
		if i == l.cursor {
			lines = append(lines, t.Selected.Render(line))
		} else {
			lines = append(lines, statusStyle(t, o.Status).Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (l *OrderList) row(number, date, status, items, total, city string) string {
	rest := l.width - colNumber - colDate - colStatus - colItems - colTotal - 5
	line := util.PadRight(number, colNumber) + " " +
		util.PadRight(date, colDate) + " " +
		util.PadRight(status, colStatus) + " " +
		fmt.Sprintf("%*s", colItems, items) + " " +
		fmt.Sprintf("%*s", colTotal, util.TruncateWidth(total, colTotal))
	if rest > 4 {
		line += " " + util.PadRight(city, rest)
	}
	return line
}

func (l *OrderList) viewDetail() string {
	t := l.theme
	o := l.Selected()
	if o == nil {
		return ""
	}

	lines := []string{
		t.Title.Render("Order #"+o.Number) + "  " + statusStyle(t, o.Status).Render(string(o.Status)),
		t.Muted.Render("Placed " + o.PlacedAt.Local().Format("Mon 2 Jan 2006 15:04")),
		"",
	}
	nameWidth := l.width - 4 - colTotal - 8
	if nameWidth < 12 {
		nameWidth = 12
	}
	for _, li := range o.Items {
		lines = append(lines, t.Body.Render(fmt.Sprintf("%3dx %s %*s",
			li.Quantity, util.PadRight(li.Name, nameWidth), colTotal, l.money.Format(li.Total()))))
	}
	lines = append(lines, "")
	for _, tot := range []struct {
		label string
		m     api.Money
	}{
		{"Subtotal", o.Subtotal},
		{"Shipping", o.Shipping},
		{"Tax", o.Tax},
	} {
		lines = append(lines, t.Muted.Render(fmt.Sprintf("%*s %*s", nameWidth+4, tot.label, colTotal, l.money.Format(tot.m))))
	}
	lines = append(lines, t.Title.Render(fmt.Sprintf("%*s %*s", nameWidth+4, "Total", colTotal, l.money.Format(o.Total))))

	a := o.ShippingAddress
	if a.Name != "" || a.City != "" {
		lines = append(lines, "", t.InputLabel.Render("Ship to"),
			t.Body.Render(strings.TrimSpace(a.Name)),
			t.Body.Render(strings.TrimSpace(a.Line1+" "+a.Line2)),
			t.Body.Render(strings.TrimSpace(a.PostalCode+" "+a.City+" "+a.Country)))
	}
	return strings.Join(lines, "\n")
}

func statusStyle(t *styles.Theme, s api.OrderStatus) lipgloss.Style {
	switch s {
	case api.OrderDelivered, api.OrderPaid:
		return t.StatusOK
	case api.OrderPending, api.OrderShipped:
		return t.StatusWarn.UnsetBold()
	case api.OrderCancelled, api.OrderRefunded:
		return t.ErrorText
	default:
		return t.Body
	}
}
