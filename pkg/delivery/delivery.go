// Package delivery moves finished export artifacts to their destination: a
// local directory or an S3 compatible bucket.
package delivery

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidArtifact is returned for artifacts without a usable name.
var ErrInvalidArtifact = errors.New("delivery: artifact name is required")

// Artifact is a named blob ready to be stored.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sink stores artifacts and reports where they ended up.
type Sink interface {
	Deliver(ctx context.Context, artifact Artifact) (string, error)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, artifact Artifact) (string, error)

// Deliver calls fn.
func (fn SinkFunc) Deliver(ctx context.Context, artifact Artifact) (string, error) {
	return fn(ctx, artifact)
}

// cleanName rejects names that would escape the destination root.
func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidArtifact
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(trimmed, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidArtifact
	}
	return cleaned, nil
}
