// Package testsupport holds fixtures and golden-file helpers shared by tests.
package testsupport

import (
	"context"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/export"
)

//go:embed testdata/*
var fixtures embed.FS

const (
	feedbackFixture    = "testdata/feedback.yaml"
	submissionsFixture = "testdata/submissions.json"
)

// FeedbackYAML returns the raw customer feedback form fixture. It has six
// fields and two rules: a low rating shows "improvements" and choosing phone
// contact makes "phone" required.
func FeedbackYAML() []byte {
	data, err := fixtures.ReadFile(feedbackFixture)
	if err != nil {
		panic(err)
	}
	return data
}

// FeedbackDocument parses the feedback fixture.
func FeedbackDocument(t *testing.T) document.Document {
	t.Helper()

	doc, err := document.Parse(FeedbackYAML(), feedbackFixture)
	if err != nil {
		t.Fatalf("parse feedback fixture: %v", err)
	}
	return doc
}

// SubmissionsJSON returns two stored feedback submissions as JSON.
func SubmissionsJSON() []byte {
	data, err := fixtures.ReadFile(submissionsFixture)
	if err != nil {
		panic(err)
	}
	return data
}

// Submissions decodes SubmissionsJSON.
func Submissions(t *testing.T) []export.Submission {
	t.Helper()

	var out []export.Submission
	if err := json.Unmarshal(SubmissionsJSON(), &out); err != nil {
		t.Fatalf("unmarshal submissions fixture: %v", err)
	}
	return out
}

// WriteFile writes data to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// WriteJSON marshals value into name inside dir and returns the path.
func WriteJSON(t *testing.T, dir, name string, value any) string {
	t.Helper()

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return WriteFile(t, dir, name, payload)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadFile reads a file produced by the code under test.
func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
