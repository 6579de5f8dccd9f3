package export

import (
	"fmt"
	"strings"
)

// Format names an export target.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
	FormatPDF   Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatExcel, FormatJSON, FormatPDF}

// UnsupportedFormatError is returned for formats outside Formats.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("export: unsupported export format: %s", e.Format)
}

// ParseFormat normalises s into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", &UnsupportedFormatError{Format: s}
	}
	return f, nil
}

// Valid reports whether f is one of Formats.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatExcel, FormatJSON, FormatPDF:
		return true
	}
	return false
}

// MIMEType returns the content type of f's payload.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.ms-excel"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "text/html"
	}
	return ""
}

// Extension returns the file extension of f's payload, without the dot.
// The pdf format produces a printable HTML document.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "xls"
	case FormatJSON:
		return "json"
	case FormatPDF:
		return "html"
	}
	return ""
}
