// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/jeranaias/storefront-tui/internal/api"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// ErrNoOrders is returned when there is nothing to export.
var ErrNoOrders = errors.New("no orders to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for order exporters.
type Exporter interface {
	// Export converts orders to the target format and returns the content.
	Export(orders []api.Order) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".csv").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// Locale drives number formatting (BCP 47, e.g. "en-US", "de-DE").
	Locale string

	// Now stamps generated files. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Locale:    "en-US",
		Now:       time.Now,
	}
}

func (o *Options) tag() language.Tag {
	if o == nil || o.Locale == "" {
		return language.AmericanEnglish
	}
	tag, err := language.Parse(o.Locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Formats lists the names accepted by ByFormat.
func Formats() []string {
	return []string{"csv", "json", "markdown"}
}

// ByFormat returns the exporter for a format name.
func ByFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(name) {
	case "csv":
		return NewCSVExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats(), ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports orders to a new file in opts.OutputDir and returns
// its path. Files are written atomically with owner-only permissions since
// they contain addresses.
func ExportToFile(orders []api.Order, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(orders) == 0 {
		return "", ErrNoOrders
	}

	content, err := exporter.Export(orders)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := "orders"
	if len(orders) == 1 {
		name = "order_" + sanitizeFilename(orderLabel(orders[0]))
	}
	base := fmt.Sprintf("%s_%s", name, opts.now().Format("20060102_150405"))

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath, err := reserveFile(dir, base, exporter.FileExtension())
	if err != nil {
		return "", err
	}
	if err := util.AtomicWriteFile(outputPath, content, 0600); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// maxNameAttempts bounds the _2, _3... suffixes tried for one timestamp.
const maxNameAttempts = 1000

// reserveFile claims an unused name in dir by creating it exclusively, so
// exports stamped with the same second never replace one another. The
// empty placeholder is later replaced by the atomic write.
func reserveFile(dir, base, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	for i := 1; i <= maxNameAttempts; i++ {
		name := base + ext
		if i > 1 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		f.Close()
		return path, nil
	}
	return "", fmt.Errorf("no free export name for %s%s in %s", base, ext, dir)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func orderLabel(o api.Order) string {
	if o.Number != "" {
		return o.Number
	}
	return o.ID
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "order"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
