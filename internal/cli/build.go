package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/preview"
)

// DefaultFormTitle names forms started from scratch.
const DefaultFormTitle = "Untitled Form"

// BuildOptions holds build command flags.
type BuildOptions struct {
	Out     string
	Title   string
	Preview bool
	Addr    string
}

// BuildResult reports a finished build session.
type BuildResult struct {
	Saved  bool   `json:"saved"`
	Path   string `json:"path,omitempty"`
	Title  string `json:"title"`
	Fields int    `json:"fields"`
	Rules  int    `json:"rules"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{}
	cmd := &cobra.Command{
		Use:   "build [document]",
		Short: "Compose a form interactively",
		Long: `Build opens an interactive session for adding, arranging and
configuring fields and for attaching conditional rules. An existing document
can be opened for editing. With --preview the session is streamed to
websocket clients while you edit.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runBuild(rootOpts, opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "where to save the form (defaults to the opened document or form.yaml)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "form title")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "serve a live preview while editing")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "preview listen address (defaults to preview.addr)")

	return cmd
}

func runBuild(rootOpts *RootOptions, opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	logger := rootOpts.logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	builderOpts := []formbuilder.Option{
		formbuilder.WithLogger(logger),
		formbuilder.WithTitle(DefaultFormTitle),
	}
	var hub *preview.Hub
	if opts.Preview {
		hub = preview.NewHub(preview.WithLogger(logger))
		builderOpts = append(builderOpts, formbuilder.WithPublisher(hub))
	}
	b := formbuilder.New(builderOpts...)

	out := opts.Out
	if path != "" {
		doc, err := readDocument(path)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeDocument, "load document", err, nil)
		}
		if err := b.Restore(doc); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeDocument, "restore document", err, nil)
		}
		if out == "" {
			out = path
		}
	}
	if out == "" {
		out = "form.yaml"
	}
	if title := strings.TrimSpace(opts.Title); title != "" {
		b.SetTitle(title)
	}

	prompts := rootOpts.Prompts
	if prompts == nil {
		prompts = NewSurveyDriver(cmd.OutOrStdout())
	}

	if hub != nil {
		addr := opts.Addr
		if addr == "" {
			addr = rootOpts.settings().Preview.Addr
		}
		ready := make(chan string, 1)
		go func() {
			err := servePreview(ctx, addr, hub, logger, func(bound string) { ready <- bound })
			if err != nil {
				logger.Error("preview server stopped", "error", err)
				close(ready)
			}
		}()
		if bound, ok := <-ready; ok {
			if err := prompts.Info(ctx, fmt.Sprintf("Live preview on ws://%s/ws", bound)); err != nil {
				return err
			}
		}
	}

	saved, err := newSession(b, prompts).Run(ctx)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			return fail(formatter, ExitFailure, ErrCodeGeneric, "build aborted", nil, nil)
		}
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "build session", err, nil)
	}

	result := BuildResult{
		Saved:  saved,
		Title:  b.Title(),
		Fields: b.Canvas().Len(),
		Rules:  b.Rules().Len(),
	}
	if saved {
		data, err := document.Marshal(b.Document(), document.EncodingFor(out))
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeDocument, "encode document", err, nil)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeDocument, "write document", err, nil)
		}
		result.Path = out
		logger.Info("form saved", "path", out, "fields", result.Fields, "rules", result.Rules)
	}

	return formatter.Success(result, func(w io.Writer) error {
		if !result.Saved {
			_, err := fmt.Fprintln(w, "nothing saved")
			return err
		}
		_, err := fmt.Fprintf(w, "✓ saved %q to %s (%d fields, %d rules)\n", result.Title, result.Path, result.Fields, result.Rules)
		return err
	})
}
