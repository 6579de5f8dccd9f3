package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Printer hands a printable document to something that can print it.
// Implementations return once the hand-off happened; printing itself is not
// awaited.
type Printer interface {
	Print(ctx context.Context, name string, document []byte) (string, error)
}

// PrinterFunc adapts a function into a Printer.
type PrinterFunc func(ctx context.Context, name string, document []byte) (string, error)

// Print calls fn.
func (fn PrinterFunc) Print(ctx context.Context, name string, document []byte) (string, error) {
	return fn(ctx, name, document)
}

// BrowserPrinter writes the document to a temporary file and opens it with
// the system handler so the user can print or save it as PDF.
type BrowserPrinter struct {
	// Dir holds the temporary files; empty uses os.TempDir.
	Dir string
	// Command builds the opener; nil uses the platform default.
	Command func(path string) *exec.Cmd
	Logger  *slog.Logger
}

// Print implements Printer. It returns the path of the written document.
func (p *BrowserPrinter) Print(ctx context.Context, name string, document []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(p.Dir, filepath.Base(name)+"-*.html")
	if err != nil {
		return "", fmt.Errorf("export: create print file: %w", err)
	}
	if _, err := f.Write(document); err != nil {
		f.Close()
		return "", fmt.Errorf("export: write print file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close print file: %w", err)
	}

	command := p.Command
	if command == nil {
		command = openCommand
	}
	cmd := command(f.Name())
	if err := cmd.Start(); err != nil {
		return f.Name(), fmt.Errorf("export: open print view: %w", err)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("print view opened", "path", f.Name())
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("print opener exited", "error", err)
		}
	}()
	return f.Name(), nil
}

func openCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
