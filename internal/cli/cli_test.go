package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

// execute runs the root command with args against the default config.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()

	opts.UseConfig(config.Default())
	cmd := NewRootCommandWith(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func feedbackPath(t *testing.T) string {
	t.Helper()
	return testsupport.WriteFile(t, t.TempDir(), "feedback.yaml", testsupport.FeedbackYAML())
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, &RootOptions{}, "--format", "xml", "fields")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFields_Text(t *testing.T) {
	out, _, err := execute(t, &RootOptions{}, "fields")
	require.NoError(t, err)

	assert.Contains(t, out, "basic")
	assert.Contains(t, out, "Text Input")
	assert.Contains(t, out, "layout")
	assert.Contains(t, out, "Separator")
}

func TestFields_JSON(t *testing.T) {
	out, _, err := execute(t, &RootOptions{}, "--format", "json", "fields")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []fieldGroup `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "text", resp.Data[0].Fields[0].ID)
}

func TestEvaluate_LowRatingShowsImprovements(t *testing.T) {
	path := feedbackPath(t)
	out, _, err := execute(t, &RootOptions{}, "--format", "json", "evaluate", path, "--set", "rating=2")
	require.NoError(t, err)

	var resp struct {
		Status string                 `json:"status"`
		Data   formbuilder.Evaluation `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Actions, 1)
	assert.Equal(t, "rule_low_rating", resp.Data.Actions[0].RuleID)
	assert.True(t, resp.Data.States["improvements"].Visible)
	assert.False(t, resp.Data.States["phone"].Visible)
}

func TestEvaluate_TextAndValuesFile(t *testing.T) {
	dir := t.TempDir()
	path := feedbackPath(t)
	values := testsupport.WriteJSON(t, dir, "values.json", map[string]any{"rating": 5, "contact": "phone"})

	out, _, err := execute(t, &RootOptions{}, "evaluate", path, "--values", values)
	require.NoError(t, err)

	assert.Contains(t, out, "rule_phone")
	assert.NotContains(t, out, "rule_low_rating")
	assert.Contains(t, out, "hidden, required")
}

func TestEvaluate_MissingDocument(t *testing.T) {
	_, stderr, err := execute(t, &RootOptions{}, "evaluate", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, Reported(err))
	assert.Contains(t, stderr, ErrCodeDocument)
}

func TestValidate(t *testing.T) {
	path := feedbackPath(t)

	out, _, err := execute(t, &RootOptions{}, "validate", path, "--set", "name=Ada", "--set", "rating=4")
	require.NoError(t, err)
	assert.Contains(t, out, "submission valid")

	out, _, err = execute(t, &RootOptions{}, "validate", path, "--set", "rating=4")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "submission invalid")
	assert.Contains(t, out, "name:")
}

func TestValidate_JSONDetails(t *testing.T) {
	path := feedbackPath(t)
	out, _, err := execute(t, &RootOptions{}, "--format", "json", "validate", path, "--set", "rating=4")
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string           `json:"code"`
			Details ValidationResult `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Details.Fields, "name")
}

func TestExport_CSVToDirectory(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteFile(t, dir, "submissions.json", testsupport.SubmissionsJSON())
	outDir := filepath.Join(dir, "out")

	out, _, err := execute(t, &RootOptions{}, "export", input, "--to", "csv", "--dir", outDir, "--name", "weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 submission(s) as csv")

	data := testsupport.MustReadFile(t, filepath.Join(outDir, "weekly.csv"))
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Submission ID,Customer Name,Email,Service Rating,Overall Experience,Improvements,Contact Method,Status,Submitted At", lines[0])
	assert.Contains(t, lines[1], "N/A")
	assert.Contains(t, lines[2], `"Smith, John"`)
}

func TestExport_PDFUsesPrinter(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteFile(t, dir, "submissions.json", testsupport.SubmissionsJSON())

	var printed []byte
	opts := &RootOptions{
		Printer: export.PrinterFunc(func(_ context.Context, name string, doc []byte) (string, error) {
			printed = doc
			return "printer://" + name, nil
		}),
	}
	out, _, err := execute(t, opts, "--format", "json", "export", input, "--to", "pdf", "--name", "report", "--title", "Weekly Feedback")
	require.NoError(t, err)

	var resp struct {
		Data export.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Printed)
	assert.Equal(t, "printer://report", resp.Data.Location)
	assert.Contains(t, string(printed), "Weekly Feedback")
	assert.Contains(t, string(printed), "Smith, John")
}

func TestExport_PDFNoOpenDeliversHTML(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteFile(t, dir, "submissions.json", testsupport.SubmissionsJSON())

	_, _, err := execute(t, &RootOptions{}, "export", input, "--to", "pdf", "--no-open", "--dir", dir, "--name", "report")
	require.NoError(t, err)

	data := testsupport.MustReadFile(t, filepath.Join(dir, "report.html"))
	assert.Contains(t, string(data), "Form Submissions Report")
	assert.NotContains(t, string(data), `class="intro"`)
}

func TestExport_PDFIntroAndVariant(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteFile(t, dir, "submissions.json", testsupport.SubmissionsJSON())

	_, _, err := execute(t, &RootOptions{}, "export", input, "--to", "pdf", "--no-open", "--dir", dir,
		"--name", "report", "--variant", "mono", "--intro", "<em>Q1</em><script>x()</script>")
	require.NoError(t, err)

	html := string(testsupport.MustReadFile(t, filepath.Join(dir, "report.html")))
	assert.Contains(t, html, `<div class="intro"><em>Q1</em></div>`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "color: #111827")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteFile(t, dir, "submissions.json", testsupport.SubmissionsJSON())

	_, stderr, err := execute(t, &RootOptions{}, "export", input, "--to", "xml", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "unsupported export format")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuild_AddFieldRenameAndSave(t *testing.T) {
	out := filepath.Join(t.TempDir(), "signup.json")
	prompts := &stubDriver{
		selects: []int{menuIndex(MenuAddField), 0, menuIndex(MenuRename), menuIndex(MenuSave)},
		inputs:  []string{"Signup"},
	}

	stdout, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, `saved "Signup"`)
	require.Len(t, prompts.infos, 1)
	assert.Contains(t, prompts.infos[0], "Added Text Input")

	doc, err := document.Parse(testsupport.MustReadFile(t, out), out)
	require.NoError(t, err)
	assert.Equal(t, "Signup", doc.Title)
	require.Len(t, doc.Fields, 1)
	assert.Equal(t, "text", doc.Fields[0].TypeID)
	assert.True(t, doc.Fields[0].Visible)
}

func TestBuild_AddRule(t *testing.T) {
	out := filepath.Join(t.TempDir(), "form.yaml")
	prompts := &stubDriver{
		selects: []int{
			menuIndex(MenuAddField), 11, // Rating
			menuIndex(MenuAddField), 3, // Text Area
			menuIndex(MenuAddRule),
			0, // trigger: rating
			3, // less than
			0, // show
			menuIndex(MenuSave),
		},
		inputs:  []string{"Low rating", "3"},
		multis:  [][]int{{1}},
		confirm: []bool{true},
	}

	_, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", "--out", out, "--title", "Feedback")
	require.NoError(t, err)

	doc, err := document.Parse(testsupport.MustReadFile(t, out), out)
	require.NoError(t, err)
	require.Len(t, doc.Fields, 2)
	require.Len(t, doc.Rules, 1)

	rule := doc.Rules[0]
	assert.Equal(t, "Low rating", rule.Name)
	assert.Equal(t, doc.Fields[0].ID, rule.Trigger.FieldID)
	assert.Equal(t, "less_than", string(rule.Trigger.Operator))
	assert.Equal(t, "3", rule.Trigger.Value)
	assert.Equal(t, []string{doc.Fields[1].ID}, rule.Action.TargetFieldIDs)
	assert.True(t, rule.Enabled)
	assert.Contains(t, prompts.infos[len(prompts.infos)-1], "When Rating is less than 3")
}

func TestBuild_EditExistingDocument(t *testing.T) {
	path := feedbackPath(t)
	prompts := &stubDriver{
		selects: []int{
			menuIndex(MenuToggleRule), 0,
			menuIndex(MenuRemove), 1, // Email
			menuIndex(MenuSave),
		},
		confirm: []bool{true},
	}

	_, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", path)
	require.NoError(t, err)

	doc, err := document.Parse(testsupport.MustReadFile(t, path), path)
	require.NoError(t, err)
	assert.Equal(t, "Customer Feedback", doc.Title)
	assert.Len(t, doc.Fields, 5)
	assert.False(t, doc.Rules[0].Enabled)
}

func TestBuild_QuitWithoutSaving(t *testing.T) {
	out := filepath.Join(t.TempDir(), "form.yaml")
	prompts := &stubDriver{
		selects: []int{menuIndex(MenuQuit)},
		confirm: []bool{true},
	}

	stdout, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing saved")
	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestBuild_Aborted(t *testing.T) {
	prompts := &stubDriver{err: ErrAborted}
	_, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", "--out", filepath.Join(t.TempDir(), "x.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestBuild_RejectedRuleCanBeAbandoned(t *testing.T) {
	out := filepath.Join(t.TempDir(), "form.yaml")
	prompts := &stubDriver{
		selects: []int{
			menuIndex(MenuAddField), 0,
			menuIndex(MenuAddRule), 0, 0, 0,
			menuIndex(MenuSave),
		},
		inputs:  []string{"", "x"},
		multis:  [][]int{{}},
		confirm: []bool{true, false},
	}

	_, _, err := execute(t, &RootOptions{Prompts: prompts}, "build", "--out", out)
	require.NoError(t, err)

	var sawProblem bool
	for _, msg := range prompts.infos {
		if strings.Contains(msg, "action.targetFieldIds") {
			sawProblem = true
		}
	}
	assert.True(t, sawProblem, "infos: %v", prompts.infos)

	doc, err := document.Parse(testsupport.MustReadFile(t, out), out)
	require.NoError(t, err)
	assert.Empty(t, doc.Rules)
}

func TestServePreview_ServesFrames(t *testing.T) {
	hub := preview.NewHub()
	b := formbuilder.New(formbuilder.WithPublisher(hub))
	require.NoError(t, b.Restore(testsupport.FeedbackDocument(t)))

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- servePreview(ctx, "127.0.0.1:0", hub, (&RootOptions{}).logger(), func(addr string) { ready <- addr })
	}()

	var addr string
	select {
	case addr = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not start")
	}

	resp, err := http.Get("http://" + addr + "/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frame preview.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Equal(t, "Customer Feedback", frame.Title)
	assert.Len(t, frame.Fields, 6)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not stop")
	}
}

// stubDriver replays scripted answers in order per prompt kind.
type stubDriver struct {
	selects []int
	multis  [][]int
	inputs  []string
	confirm []bool
	texts   []string
	infos   []string
	err     error

	selectPos, multiPos, inputPos, confirmPos, textPos int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted for " + cfg.Message)
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted for " + cfg.Message)
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.err != nil {
		return -1, s.err
	}
	if s.selectPos >= len(s.selects) {
		return -1, errors.New("no select scripted for " + cfg.Message)
	}
	val := s.selects[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.multiPos >= len(s.multis) {
		return nil, errors.New("no multiselect scripted for " + cfg.Message)
	}
	val := s.multis[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.textPos >= len(s.texts) {
		return "", errors.New("no textarea scripted for " + cfg.Message)
	}
	val := s.texts[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}
