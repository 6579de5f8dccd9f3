package delivery

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// FileSink writes artifacts below Dir, optionally gzip compressed.
type FileSink struct {
	Dir  string
	Gzip bool
	Perm os.FileMode
}

// NewFileSink returns a sink writing to dir.
func NewFileSink(dir string, compress bool) *FileSink {
	return &FileSink{Dir: dir, Gzip: compress, Perm: 0o644}
}

// Deliver writes the artifact and returns its path. Compressed artifacts get
// a .gz suffix.
func (s *FileSink) Deliver(ctx context.Context, artifact Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(artifact.Name)
	if err != nil {
		return "", err
	}
	data := artifact.Data
	if s.Gzip {
		name += ".gz"
		if data, err = compress(name, artifact.Data); err != nil {
			return "", err
		}
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("delivery: create directory: %w", err)
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(target, data, perm); err != nil {
		return "", fmt.Errorf("delivery: write %s: %w", target, err)
	}
	return target, nil
}

func compress(name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("delivery: gzip writer: %w", err)
	}
	zw.Name = filepath.Base(name[:len(name)-len(".gz")])
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("delivery: gzip %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("delivery: gzip %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
