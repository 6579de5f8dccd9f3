package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

// RootOptions holds global flags and the collaborators shared by every
// command. Tests replace Prompts and Printer.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	EnvFile    string

	Config  config.Config
	Logger  *slog.Logger
	Prompts PromptDriver
	Printer export.Printer

	configured bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the formbuilder command tree.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith creates the command tree around opts.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formbuilder",
		Short: "Compose forms, attach conditional rules and export submissions",
		Long: `formbuilder composes forms from a catalog of field types, attaches
conditional rules that show, hide, require or skip fields, validates
submissions against the resulting schema and exports collected submissions
as csv, excel, json or a printable report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./formbuilder.yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if o.Logger == nil {
		level := slog.LevelInfo
		if o.Verbose {
			level = slog.LevelDebug
		}
		o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}
	if o.configured {
		return nil
	}
	cfg, err := config.Load(config.Options{File: o.ConfigFile, EnvFile: o.EnvFile})
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	o.Config = cfg
	o.configured = true
	o.Logger.Debug("config loaded", "export.format", cfg.Export.Format, "export.sink", cfg.Export.Sink)
	return nil
}

// UseConfig installs cfg and skips loading from disk.
func (o *RootOptions) UseConfig(cfg config.Config) {
	o.Config = cfg
	o.configured = true
}

func (o *RootOptions) settings() config.Config {
	if !o.configured {
		o.UseConfig(config.Default())
	}
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	format := o.Format
	if format == "" {
		format = "text"
	}
	return &OutputFormatter{
		Format:    format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// fail reports err through the formatter and returns an ExitError.
func fail(f *OutputFormatter, exit int, code, message string, err error, details any) error {
	text := message
	if err != nil {
		text = fmt.Sprintf("%s: %v", message, err)
	}
	if outErr := f.Error(code, text, details); outErr != nil {
		return outErr
	}
	exitErr := WrapExitError(exit, code+" "+message, err)
	exitErr.reported = true
	return exitErr
}

func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, err
	}
	return document.Parse(data, path)
}

// readValues merges a JSON or YAML values file with key=value overrides.
func readValues(path string, sets map[string]string) (rules.Values, error) {
	values := rules.Values{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		decoded := map[string]any{}
		if err := decode(data, &decoded); err != nil {
			return nil, fmt.Errorf("parse values %s: %w", path, err)
		}
		for k, v := range decoded {
			values[k] = v
		}
	}
	for k, v := range sets {
		values[strings.TrimSpace(k)] = v
	}
	return values, nil
}

// decode reads JSON, falling back to YAML.
func decode(data []byte, v any) error {
	if json.Valid(data) {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}
