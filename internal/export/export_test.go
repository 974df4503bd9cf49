// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jeranaias/storefront-tui/internal/api"
)

var placed = time.Date(2025, 2, 14, 18, 30, 0, 0, time.UTC)

func usd(cents int64) api.Money { return api.Money{Amount: cents, Currency: "USD"} }

func sampleOrder() api.Order {
	return api.Order{
		ID:       "ord_01",
		Number:   "SO-1001",
		Status:   api.OrderShipped,
		PlacedAt: placed,
		Items: []api.LineItem{
			{SKU: "MUG-1", Name: "Enamel mug", Quantity: 2, UnitPrice: usd(1250)},
			{SKU: "TEE-M", Name: "T-shirt | medium", Quantity: 1, UnitPrice: usd(2400)},
		},
		Subtotal: usd(4900),
		Shipping: usd(500),
		Tax:      usd(392),
		Total:    usd(5792),
		ShippingAddress: api.Address{
			Name: "Ada Lovelace", Line1: "12 St James's Square",
			City: "London", PostalCode: "SW1Y 4JH", Country: "GB",
		},
	}
}

func fixedOptions(dir string) *Options {
	return &Options{
		OutputDir: dir,
		Locale:    "en-US",
		Now:       func() time.Time { return placed.Add(24 * time.Hour) },
	}
}

func TestByFormat(t *testing.T) {
	for _, name := range append(Formats(), "MD") {
		exp, err := ByFormat(name, nil)
		require.NoError(t, err, name)
		assert.NotEmpty(t, exp.FileExtension())
	}
	_, err := ByFormat("xlsx", nil)
	assert.Error(t, err)
}

func TestCSVExporter(t *testing.T) {
	data, err := NewCSVExporter(nil).Export([]api.Order{sampleOrder(), {ID: "ord_02", PlacedAt: placed, Total: usd(0)}})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"ord_01", "SO-1001", "2025-02-14T18:30:00Z", "shipped",
		"MUG-1", "Enamel mug", "2", "12.50", "25.00", "USD", "57.92",
	}, rows[1])
	assert.Equal(t, "T-shirt | medium", rows[2][5])
	assert.Equal(t, "ord_02", rows[3][0])
}

func TestJSONExporter(t *testing.T) {
	data, err := NewJSONExporter(fixedOptions(".")).Export([]api.Order{sampleOrder()})
	require.NoError(t, err)

	var env jsonEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, placed.Add(24*time.Hour), env.ExportedAt)
	assert.Equal(t, "SO-1001", env.Orders[0].Number)
}

func TestMarkdownReceipt(t *testing.T) {
	o := sampleOrder()
	out, err := NewMarkdownExporter(nil).Receipt(&o)
	require.NoError(t, err)

	assert.Contains(t, out, "# Receipt SO-1001")
	assert.Contains(t, out, "- **Status**: Shipped")
	assert.Contains(t, out, "- **Items**: 3")
	assert.Contains(t, out, "T-shirt \\| medium")
	assert.Contains(t, out, "| **Total** | **$57.92** |")
	assert.Contains(t, out, "## Ship to")
	assert.Contains(t, out, "London SW1Y 4JH")
}

func TestMarkdownReceipt_Invalid(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Receipt(nil)
	assert.Error(t, err)

	_, err = NewMarkdownExporter(nil).Receipt(&api.Order{ID: "x"})
	assert.Error(t, err)
}

func TestMarkdownExporter_Multiple(t *testing.T) {
	a, b := sampleOrder(), sampleOrder()
	b.Number = "SO-1002"

	data, err := NewMarkdownExporter(nil).Export([]api.Order{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "# Receipt"))
	assert.Contains(t, string(data), "\n---\n")
}

func TestMoneyFormatter(t *testing.T) {
	f := NewMoneyFormatter(language.AmericanEnglish)

	assert.Equal(t, "$1,234.50", f.Format(usd(123450)))
	assert.Equal(t, "-$12.50", f.Format(usd(-1250)))
	assert.Equal(t, "¥1,500", f.Format(api.Money{Amount: 1500, Currency: "JPY"}))
	assert.Equal(t, "SEK 99.00", f.Format(api.Money{Amount: 9900, Currency: "sek"}))
	assert.Equal(t, "CA$5.00", f.Format(api.Money{Amount: 500, Currency: "CAD"}))
	assert.Equal(t, "€0.07", f.Format(api.Money{Amount: 7, Currency: "EUR"}))
	assert.Equal(t, "XYZ 1.00", f.Format(api.Money{Amount: 100, Currency: "XYZ"}))
	assert.Equal(t, "1.00", f.Format(api.Money{Amount: 100}))
}

func TestMoneyFormatter_LocaleSeparators(t *testing.T) {
	f := NewMoneyFormatter(language.German)
	assert.Equal(t, "€1.234,50", f.Format(api.Money{Amount: 123450, Currency: "EUR"}))
}

func TestMoneyFormatter_ExactBeyondFloatPrecision(t *testing.T) {
	f := NewMoneyFormatter(language.AmericanEnglish)

	// 2^53+1 cents is the first amount a float64 cannot hold.
	assert.Equal(t, "$90,071,992,547,409.93", f.Format(usd(1<<53+1)))
	assert.Equal(t, "$92,233,720,368,547,758.07", f.Format(usd(math.MaxInt64)))
	assert.Equal(t, "-$92,233,720,368,547,758.08", f.Format(usd(math.MinInt64)))
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "0.05", Plain(usd(5)))
	assert.Equal(t, "-1234.50", Plain(usd(-123450)))
	assert.Equal(t, "1500", Plain(api.Money{Amount: 1500, Currency: "JPY"}))
	assert.Equal(t, "1.00", Plain(api.Money{Amount: 100}))
	assert.Equal(t, "-92233720368547758.08", Plain(usd(math.MinInt64)))
	assert.Equal(t, "-9223372036854775808", Plain(api.Money{Amount: math.MinInt64, Currency: "JPY"}))
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := fixedOptions(dir)

	path, err := ExportToFile([]api.Order{sampleOrder()}, NewCSVExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "order_SO-1001_20250215_183000.csv"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	path, err = ExportToFile([]api.Order{sampleOrder(), sampleOrder()}, NewJSONExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, "orders_20250215_183000.json", filepath.Base(path))

	_, err = ExportToFile(nil, NewJSONExporter(opts), opts)
	assert.ErrorIs(t, err, ErrNoOrders)
}

func TestExportToFile_SameSecondKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	opts := fixedOptions(dir)

	first := sampleOrder()
	second := sampleOrder()
	second.Tax = usd(400)

	p1, err := ExportToFile([]api.Order{first}, NewJSONExporter(opts), opts)
	require.NoError(t, err)
	p2, err := ExportToFile([]api.Order{second}, NewJSONExporter(opts), opts)
	require.NoError(t, err)
	p3, err := ExportToFile([]api.Order{first}, NewJSONExporter(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, "order_SO-1001_20250215_183000.json", filepath.Base(p1))
	assert.Equal(t, "order_SO-1001_20250215_183000_2.json", filepath.Base(p2))
	assert.Equal(t, "order_SO-1001_20250215_183000_3.json", filepath.Base(p3))

	a, err := os.ReadFile(p1)
	require.NoError(t, err)
	b, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "second export must not replace the first")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "SO-1001", sanitizeFilename("SO-1001"))
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "order", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}
