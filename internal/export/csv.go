// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jeranaias/storefront-tui/internal/api"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

var csvHeader = []string{
	"order_id", "order_number", "placed_at", "status",
	"sku", "item", "quantity", "unit_price", "line_total", "currency",
	"order_total",
}

// CSVExporter writes one row per line item. Amounts are plain decimals so
// spreadsheets parse them as numbers.
type CSVExporter struct {
	options *Options
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(opts *Options) *CSVExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &CSVExporter{options: opts}
}

// Export converts orders to CSV.
func (e *CSVExporter) Export(orders []api.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, o := range orders {
		base := []string{o.ID, o.Number, o.PlacedAt.UTC().Format(time.RFC3339), string(o.Status)}
		if len(o.Items) == 0 {
			row := append(append([]string{}, base...), "", "", "0", "", "", o.Total.Currency, Plain(o.Total))
			if err := w.Write(row); err != nil {
				return nil, err
			}
			continue
		}
		for _, li := range o.Items {
			row := append(append([]string{}, base...),
				li.SKU,
				li.Name,
				strconv.Itoa(li.Quantity),
				Plain(li.UnitPrice),
				Plain(li.Total()),
				li.UnitPrice.Currency,
				Plain(o.Total),
			)
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("order %s: %w", o.ID, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for CSV.
func (e *CSVExporter) FileExtension() string {
	return ".csv"
}

// MimeType returns the MIME type for CSV.
func (e *CSVExporter) MimeType() string {
	return "text/csv"
}
