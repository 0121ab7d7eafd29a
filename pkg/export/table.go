package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Table is an ordered, tabular export.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

// ParseFormat accepts csv or pdf, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Render encodes the table in the requested format.
func Render(f Format, t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("%s export requires at least one header", f)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Headers))
		}
	}
	switch f {
	case FormatCSV:
		return renderCSV(t)
	case FormatPDF:
		return renderPDF(t)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}
