package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, "file", cfg.Export.Sink)
	assert.Equal(t, "Form Submissions Report", cfg.Report.Title)
	assert.Equal(t, "127.0.0.1:8787", cfg.Preview.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "formbuilder.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
export:
  format: JSON
  dir: out
  gzip: true
report:
  title: Weekly
  variant: mono
`), 0o644))
	t.Setenv("FORMBUILDER_EXPORT_DIR", "from-env")

	cfg, err := Load(Options{SearchPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, "from-env", cfg.Export.Dir)
	assert.True(t, cfg.Export.Gzip)
	assert.Equal(t, "Weekly", cfg.Report.Title)
	assert.Equal(t, "mono", cfg.Report.Variant)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FORMBUILDER_REPORT_TITLE=From Dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FORMBUILDER_REPORT_TITLE") })

	cfg, err := Load(Options{EnvFile: envFile, SearchPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "From Dotenv", cfg.Report.Title)

	_, err = Load(Options{EnvFile: filepath.Join(dir, "missing.env"), SearchPaths: []string{dir}})
	require.NoError(t, err)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FORMBUILDER_EXPORT_FORMAT", "xml")
	_, err := Load(Options{SearchPaths: []string{t.TempDir()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.format failed oneof")
}

func TestValidate_S3NeedsBucket(t *testing.T) {
	cfg := Config{
		Export:  ExportConfig{Format: "csv", Dir: ".", Sink: "s3"},
		Report:  ReportConfig{Title: "x"},
		Preview: PreviewConfig{Addr: "localhost:1"},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.s3.bucket")

	cfg.Export.S3.Bucket = "exports"
	require.NoError(t, Validate(cfg))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "csv", cfg.Export.Format)
}
