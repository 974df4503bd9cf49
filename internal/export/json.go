// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/storefront-tui/internal/api"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports orders as they were returned by the API, wrapped in
// a small envelope.
type JSONExporter struct {
	options *Options
}

type jsonEnvelope struct {
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Orders     []api.Order `json:"orders"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts orders to indented JSON.
func (e *JSONExporter) Export(orders []api.Order) ([]byte, error) {
	if orders == nil {
		orders = []api.Order{}
	}
	return json.MarshalIndent(jsonEnvelope{
		ExportedAt: e.options.now().UTC(),
		Count:      len(orders),
		Orders:     orders,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
