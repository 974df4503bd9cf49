// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes order history and receipts to files.
//
// # Formats
//
//   - CSV: one row per line item, for spreadsheets
//   - JSON: the orders as returned by the API
//   - Markdown: a printable receipt per order (also rendered in the
//     terminal by `storefront orders receipt`)
//
// Amounts are formatted for the configured locale with golang.org/x/text.
//
// # Usage
//
//	exp, err := export.ByFormat("csv", opts)
//	path, err := export.ExportToFile(orders, exp, opts)
package export
