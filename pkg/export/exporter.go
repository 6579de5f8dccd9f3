package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/delivery"
)

// DefaultFilenamePrefix starts generated filenames.
const DefaultFilenamePrefix = "form-submissions"

// Result describes a finished export.
type Result struct {
	Format   Format `json:"format"`
	Filename string `json:"filename"`
	Location string `json:"location"`
	Records  int    `json:"records"`
	// Printed is set when the document was handed to a Printer instead of
	// a Sink.
	Printed bool `json:"printed"`
}

// Exporter serializes records and delivers them.
type Exporter struct {
	serializer *Serializer
	sink       delivery.Sink
	printer    Printer
	logger     *slog.Logger
	now        func() time.Time
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithSink sets where csv, excel and json payloads are delivered.
func WithSink(sink delivery.Sink) ExporterOption {
	return func(e *Exporter) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithPrinter sets the printer receiving pdf reports.
func WithPrinter(printer Printer) ExporterOption {
	return func(e *Exporter) {
		if printer != nil {
			e.printer = printer
		}
	}
}

// WithSerializer overrides the default serializer.
func WithSerializer(s *Serializer) ExporterOption {
	return func(e *Exporter) {
		if s != nil {
			e.serializer = s
		}
	}
}

// WithLogger sets the logger for advisories and delivery events.
func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNow sets the clock used for default filenames.
func WithNow(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExporter returns an exporter writing to the working directory and
// printing through the system browser unless configured otherwise.
func NewExporter(opts ...ExporterOption) (*Exporter, error) {
	e := &Exporter{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.serializer == nil {
		s, err := NewSerializer()
		if err != nil {
			return nil, err
		}
		e.serializer = s
	}
	if e.sink == nil {
		e.sink = delivery.NewFileSink(".", false)
	}
	if e.printer == nil {
		e.printer = &BrowserPrinter{Logger: e.logger}
	}
	return e, nil
}

// DefaultFilename returns form-submissions-<unix millis>.
func (e *Exporter) DefaultFilename() string {
	return fmt.Sprintf("%s-%d", DefaultFilenamePrefix, e.now().UnixMilli())
}

// ExportFormSubmissions formats submissions and exports them in format. An
// empty base selects DefaultFilename.
func (e *Exporter) ExportFormSubmissions(ctx context.Context, submissions []Submission, format Format, base string) (Result, error) {
	return e.ExportRecords(ctx, FormatSubmissions(submissions), format, base)
}

// ExportRecords serializes records and hands the payload to the sink, or to
// the printer for pdf. Nothing is delivered when serialization fails.
func (e *Exporter) ExportRecords(ctx context.Context, records []*Record, format Format, base string) (Result, error) {
	payload, err := e.serializer.Serialize(records, format)
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		e.logger.Warn("no data to export", "format", string(format))
	}
	if strings.TrimSpace(base) == "" {
		base = e.DefaultFilename()
	}
	result := Result{
		Format:   format,
		Filename: payload.Filename(base),
		Records:  len(records),
	}

	if format == FormatPDF {
		location, err := e.printer.Print(ctx, base, payload.Data)
		if err != nil {
			return Result{}, err
		}
		result.Location = location
		result.Printed = true
		return result, nil
	}

	location, err := e.sink.Deliver(ctx, delivery.Artifact{
		Name:        result.Filename,
		ContentType: payload.MIMEType,
		Data:        payload.Data,
	})
	if err != nil {
		return Result{}, fmt.Errorf("export: deliver %s: %w", result.Filename, err)
	}
	result.Location = location
	e.logger.Info("export delivered", "format", string(format), "records", len(records), "location", location)
	return result, nil
}
