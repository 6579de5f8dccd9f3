package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Payload is a serialized export ready for delivery.
type Payload struct {
	Format    Format
	Data      []byte
	MIMEType  string
	Extension string
}

// Filename joins base with the payload extension.
func (p Payload) Filename(base string) string {
	return base + "." + p.Extension
}

// Serializer turns records into payloads. The zero value is not usable; use
// NewSerializer.
type Serializer struct {
	report *Report
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithReport sets the renderer used for the pdf format.
func WithReport(report *Report) SerializerOption {
	return func(s *Serializer) {
		if report != nil {
			s.report = report
		}
	}
}

// NewSerializer returns a serializer with the default report renderer unless
// one is supplied.
func NewSerializer(opts ...SerializerOption) (*Serializer, error) {
	s := &Serializer{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.report == nil {
		report, err := NewReport()
		if err != nil {
			return nil, err
		}
		s.report = report
	}
	return s, nil
}

var (
	defaultSerializerOnce sync.Once
	defaultSerializer     *Serializer
	defaultSerializerErr  error
)

// Serialize encodes records with the default serializer.
func Serialize(records []*Record, format Format) (Payload, error) {
	defaultSerializerOnce.Do(func() {
		defaultSerializer, defaultSerializerErr = NewSerializer()
	})
	if defaultSerializerErr != nil {
		return Payload{}, defaultSerializerErr
	}
	return defaultSerializer.Serialize(records, format)
}

// Serialize encodes records in format. An empty record list yields an empty
// but valid document for every format.
func (s *Serializer) Serialize(records []*Record, format Format) (Payload, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data = encodeDelimited(records, ",", quoteCSV)
	case FormatExcel:
		data = encodeDelimited(records, "\t", nil)
	case FormatJSON:
		data, err = encodeJSON(records)
	case FormatPDF:
		data, err = s.report.Render(records)
	default:
		return Payload{}, &UnsupportedFormatError{Format: string(format)}
	}
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Format:    format,
		Data:      data,
		MIMEType:  format.MIMEType(),
		Extension: format.Extension(),
	}, nil
}

// Columns returns the header row: the keys of the first record.
func Columns(records []*Record) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Keys()
}

// encodeDelimited writes a header row and one row per record, joined by
// newlines with no trailing newline. Without columns there is nothing to
// write. Tab output is never quoted, so values
// containing tabs or newlines corrupt the layout.
func encodeDelimited(records []*Record, sep string, quote func(string) string) []byte {
	headers := Columns(records)
	if len(headers) == 0 {
		return []byte{}
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(headers, sep))
	cells := make([]string, len(headers))
	for _, record := range records {
		for i, header := range headers {
			value, _ := record.Get(header)
			cell := CellString(value)
			if quote != nil {
				cell = quote(cell)
			}
			cells[i] = cell
		}
		lines = append(lines, strings.Join(cells, sep))
	}
	return []byte(strings.Join(lines, "\n"))
}

// quoteCSV quotes only values containing a comma, a quote or a newline.
// encoding/csv also quotes leading spaces and carriage returns, which would
// change the byte layout of exported files.
func quoteCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func encodeJSON(records []*Record) ([]byte, error) {
	if records == nil {
		records = []*Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// CellString renders a record value as cell text. nil becomes the empty
// string.
func CellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
