package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/pkg/delivery"
	"github.com/goliatone/go-formbuilder/pkg/export"
)

// ExportOptions holds export command flags. Empty values fall back to the
// loaded configuration.
type ExportOptions struct {
	To      string
	Name    string
	Dir     string
	Gzip    bool
	Title   string
	Intro   string
	Theme   string
	Variant string
	NoOpen  bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export <submissions>",
		Short: "Export form submissions as csv, excel, json or a printable report",
		Long: `Export reads a JSON or YAML list of submissions and writes them in the
requested format to the configured sink (a directory or an S3 bucket).

The pdf format renders an HTML report and opens it for printing. With
--no-open the report is delivered to the sink instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "export format (csv|excel|json|pdf)")
	cmd.Flags().StringVarP(&opts.Name, "name", "o", "", "base filename without extension")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "output directory for the file sink")
	cmd.Flags().BoolVar(&opts.Gzip, "gzip", false, "gzip files written by the file sink")
	cmd.Flags().StringVar(&opts.Title, "title", "", "report title")
	cmd.Flags().StringVar(&opts.Intro, "intro", "", "report intro markup (basic formatting only)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "report theme")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "report theme variant")
	cmd.Flags().BoolVar(&opts.NoOpen, "no-open", false, "deliver the pdf report instead of opening it")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	logger := rootOpts.logger()
	cfg := mergeExportConfig(rootOpts.settings(), opts)

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "parse format", err, nil)
	}

	submissions, err := readSubmissions(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "read submissions", err, nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sink, err := openSink(ctx, cfg.Export)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "open sink", err, nil)
	}

	themes, err := export.NewThemes()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "load themes", err, nil)
	}
	report, err := export.NewReport(
		export.WithTitle(cfg.Report.Title),
		export.WithIntro(cfg.Report.Intro),
		export.WithTheme(themes, cfg.Report.Theme, cfg.Report.Variant),
	)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "build report", err, nil)
	}
	serializer, err := export.NewSerializer(export.WithReport(report))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "build serializer", err, nil)
	}

	printer := rootOpts.Printer
	switch {
	case printer != nil:
	case opts.NoOpen:
		printer = sinkPrinter(sink)
	default:
		printer = &export.BrowserPrinter{Logger: logger}
	}

	exporter, err := export.NewExporter(
		export.WithSink(sink),
		export.WithPrinter(printer),
		export.WithSerializer(serializer),
		export.WithLogger(logger),
	)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "build exporter", err, nil)
	}

	result, err := exporter.ExportFormSubmissions(ctx, submissions, format, cfg.Export.Filename)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExport, "export", err, nil)
	}

	return formatter.Success(result, func(w io.Writer) error {
		verb := "exported"
		if result.Printed {
			verb = "printed"
		}
		_, err := fmt.Fprintf(w, "✓ %s %d submission(s) as %s to %s\n", verb, result.Records, result.Format, result.Location)
		return err
	})
}

func mergeExportConfig(cfg config.Config, opts *ExportOptions) config.Config {
	if v := strings.TrimSpace(opts.To); v != "" {
		cfg.Export.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(opts.Name); v != "" {
		cfg.Export.Filename = v
	}
	if v := strings.TrimSpace(opts.Dir); v != "" {
		cfg.Export.Dir = v
	}
	if opts.Gzip {
		cfg.Export.Gzip = true
	}
	if v := strings.TrimSpace(opts.Title); v != "" {
		cfg.Report.Title = v
	}
	if v := strings.TrimSpace(opts.Intro); v != "" {
		cfg.Report.Intro = v
	}
	if v := strings.TrimSpace(opts.Theme); v != "" {
		cfg.Report.Theme = v
	}
	if v := strings.TrimSpace(opts.Variant); v != "" {
		cfg.Report.Variant = v
	}
	return cfg
}

func openSink(ctx context.Context, cfg config.ExportConfig) (delivery.Sink, error) {
	switch cfg.Sink {
	case "s3":
		return delivery.OpenS3Sink(ctx, delivery.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	case "", "file":
		return delivery.NewFileSink(cfg.Dir, cfg.Gzip), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// sinkPrinter delivers the printable report as an HTML artifact.
func sinkPrinter(sink delivery.Sink) export.Printer {
	return export.PrinterFunc(func(ctx context.Context, name string, document []byte) (string, error) {
		return sink.Deliver(ctx, delivery.Artifact{
			Name:        name + "." + export.FormatPDF.Extension(),
			ContentType: export.FormatPDF.MIMEType(),
			Data:        document,
		})
	})
}

func readSubmissions(path string) ([]export.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var submissions []export.Submission
	if err := decode(data, &submissions); err != nil {
		return nil, fmt.Errorf("parse submissions %s: %w", path, err)
	}
	return submissions, nil
}
