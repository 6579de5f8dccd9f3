package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/pkg/preview"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	values := &valueFlags{}
	var addr string
	cmd := &cobra.Command{
		Use:   "preview <document>",
		Short: "Serve a live preview of a form over a websocket",
		Long: `Preview restores a form document and serves its current state.
Websocket clients connect to /ws and receive a frame on connect; /frame
returns the latest frame as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, args[0], addr, values, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to preview.addr)")
	values.register(cmd)
	return cmd
}

func runPreview(opts *RootOptions, path, addr string, flags *valueFlags, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()
	if addr == "" {
		addr = opts.settings().Preview.Addr
	}

	doc, err := readDocument(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDocument, "load document", err, nil)
	}
	values, err := readValues(flags.file, flags.sets)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeValues, "read values", err, nil)
	}

	hub := preview.NewHub(preview.WithLogger(logger))
	b := formbuilder.New(formbuilder.WithLogger(logger), formbuilder.WithPublisher(hub))
	if err := b.Restore(doc); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDocument, "restore document", err, nil)
	}
	b.SetValues(values)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err = servePreview(ctx, addr, hub, logger, func(bound string) {
		_ = formatter.Success(map[string]string{"addr": bound, "title": b.Title()}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "previewing %q on http://%s (websocket ws://%s/ws)\n", b.Title(), bound, bound)
			return err
		})
	})
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "serve preview", err, nil)
	}
	return nil
}

// servePreview listens on addr and serves hub until ctx is done.
func servePreview(ctx context.Context, addr string, hub *preview.Hub, logger *slog.Logger, ready func(bound string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/frame", hub.FrameHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	logger.Info("preview listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
