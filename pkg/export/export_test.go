package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"

	"github.com/goliatone/go-formbuilder/pkg/delivery"
)

func sampleSubmissions() []Submission {
	return []Submission{
		{
			ID:                "sub_001",
			CustomerName:      "Ada Lovelace",
			Email:             "ada@example.com",
			ServiceRating:     5,
			OverallExperience: "Fast & friendly",
			ContactMethod:     "email",
			Status:            "reviewed",
			SubmittedAt:       "2024-03-01T10:00:00Z",
		},
		{
			ID:                "sub_002",
			CustomerName:      "Smith, John",
			Email:             "john@example.com",
			ServiceRating:     3,
			OverallExperience: `Said "ok"`,
			Improvements:      "Faster\nreplies",
			ContactMethod:     "phone",
			Status:            "new",
			SubmittedAt:       "2024-03-02T11:30:00Z",
		},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)
}

func TestSerialize_Golden(t *testing.T) {
	records := FormatSubmissions(sampleSubmissions())
	g := newGoldie(t)

	for _, format := range []Format{FormatCSV, FormatExcel, FormatJSON} {
		payload, err := Serialize(records, format)
		if err != nil {
			t.Fatalf("serialize %s: %v", format, err)
		}
		g.Assert(t, "submissions_"+string(format), payload.Data)
	}
}

func TestSerialize_MIMETypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format Format
		mime   string
		ext    string
	}{
		{FormatCSV, "text/csv", "csv"},
		{FormatExcel, "application/vnd.ms-excel", "xls"},
		{FormatJSON, "application/json", "json"},
		{FormatPDF, "text/html", "html"},
	}
	for _, tc := range cases {
		t.Run(string(tc.format), func(t *testing.T) {
			payload, err := Serialize(nil, tc.format)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if payload.MIMEType != tc.mime || payload.Extension != tc.ext {
				t.Fatalf("got %s/%s, want %s/%s", payload.MIMEType, payload.Extension, tc.mime, tc.ext)
			}
			if got := payload.Filename("base"); got != "base."+tc.ext {
				t.Fatalf("unexpected filename %q", got)
			}
		})
	}
}

func TestSerialize_CSVRoundTrip(t *testing.T) {
	t.Parallel()

	records := FormatSubmissions(sampleSubmissions())
	payload, err := Serialize(records, FormatCSV)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(payload.Data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if diff := cmp.Diff(records[0].Keys(), rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	for i, record := range records {
		want := make([]string, 0, record.Len())
		for _, key := range record.Keys() {
			value, _ := record.Get(key)
			want = append(want, CellString(value))
		}
		if diff := cmp.Diff(want, rows[i+1]); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSerialize_Empty(t *testing.T) {
	t.Parallel()

	g := newGoldie(t)
	payload, err := Serialize([]*Record{}, FormatJSON)
	if err != nil {
		t.Fatalf("serialize json: %v", err)
	}
	g.Assert(t, "empty_json", payload.Data)

	for _, format := range []Format{FormatCSV, FormatExcel} {
		payload, err := Serialize(nil, format)
		if err != nil {
			t.Fatalf("serialize %s: %v", format, err)
		}
		if len(payload.Data) != 0 {
			t.Fatalf("expected empty %s payload, got %q", format, payload.Data)
		}
	}

	payload, err = Serialize(nil, FormatPDF)
	if err != nil {
		t.Fatalf("serialize pdf: %v", err)
	}
	html := string(payload.Data)
	if strings.Contains(html, "<td>") || strings.Contains(html, "<th>") {
		t.Fatalf("expected empty table, got:\n%s", html)
	}
	if !strings.Contains(html, `<div class="stat-value">0</div>`) {
		t.Fatalf("expected zero count, got:\n%s", html)
	}
}

func TestSerialize_RecordsWithoutColumns(t *testing.T) {
	t.Parallel()

	for _, records := range [][]*Record{
		{NewRecord()},
		{NewRecord(), NewRecord()},
		{NewRecord(), NewRecord("Name", "Ada")},
	} {
		for _, format := range []Format{FormatCSV, FormatExcel} {
			payload, err := Serialize(records, format)
			if err != nil {
				t.Fatalf("serialize %s: %v", format, err)
			}
			if len(payload.Data) != 0 {
				t.Fatalf("expected empty %s payload for %d records, got %q", format, len(records), payload.Data)
			}
		}
	}
}

func TestSerialize_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Serialize(nil, Format("xml"))
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Format != "xml" {
		t.Fatalf("unexpected format %q", unsupported.Format)
	}

	if _, err := ParseFormat(" EXCEL "); err != nil {
		t.Fatalf("parse excel: %v", err)
	}
	if _, err := ParseFormat("docx"); !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

func TestReport_Render(t *testing.T) {
	t.Parallel()

	report, err := NewReport(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	records := FormatSubmissions(sampleSubmissions())
	records = append(records, NewRecord(ColumnSubmissionID, "<script>alert(1)</script>sub_003"))

	out, err := report.Render(records)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>Form Submissions Report</title>",
		"Generated on March 4, 2024 09:30 UTC",
		`<div class="stat-value">3</div>`,
		`<div class="stat-value">Mar 4, 2024</div>`,
		"<th>Submission ID</th>",
		"<td>Smith, John</td>",
		"<td>Fast &amp; friendly</td>",
		"<td>&lt;script&gt;alert(1)&lt;/script&gt;sub_003</td>",
		"border-bottom: 2px solid #2563eb",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("report contains unescaped markup:\n%s", html)
	}
}

func TestReport_CellsMatchCSV(t *testing.T) {
	t.Parallel()

	report, err := NewReport(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	out, err := report.Render([]*Record{NewRecord("Comment", "use <email> please & thanks")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<td>use &lt;email&gt; please &amp; thanks</td>"; !strings.Contains(string(out), want) {
		t.Fatalf("report missing %q:\n%s", want, out)
	}
}

func TestReport_Intro(t *testing.T) {
	t.Parallel()

	report, err := NewReport(
		WithClock(fixedClock),
		WithIntro(`<p>Collected at <strong>the desk</strong>.</p><script>alert(1)</script><img src="x" onerror="y">`),
	)
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	out, err := report.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `<div class="intro"><p>Collected at <strong>the desk</strong>.</p></div>`) {
		t.Fatalf("intro markup not kept:\n%s", html)
	}
	for _, banned := range []string{"<script>", "<img", "onerror"} {
		if strings.Contains(html, banned) {
			t.Fatalf("intro kept %q:\n%s", banned, html)
		}
	}

	plain, err := NewReport(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	out, err = plain.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), `class="intro"`) {
		t.Fatalf("empty intro rendered:\n%s", out)
	}
}

func TestReport_Theme(t *testing.T) {
	t.Parallel()

	themes, err := NewThemes()
	if err != nil {
		t.Fatalf("new themes: %v", err)
	}
	report, err := NewReport(
		WithTitle("Weekly Feedback"),
		WithClock(fixedClock),
		WithTheme(themes, "", "mono"),
	)
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	out, err := report.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "color: #111827") || !strings.Contains(html, "<title>Weekly Feedback</title>") {
		t.Fatalf("theme not applied:\n%s", html)
	}
	if !strings.Contains(html, "border: 1px solid #e5e7eb") {
		t.Fatalf("base tokens not kept:\n%s", html)
	}

	bad, err := NewReport(WithTheme(themes, "report", "neon"))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	if _, err := bad.Render(nil); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestThemes_SelectFromRegistry(t *testing.T) {
	t.Parallel()

	themes, err := NewThemes()
	if err != nil {
		t.Fatalf("new themes: %v", err)
	}
	if err := themes.Register(&theme.Manifest{
		Name:    "ocean",
		Version: "1.0.0",
		Tokens:  map[string]string{TokenBrand: "#0e7490"},
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{TokenSurface: "#082f49"}},
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if diff := cmp.Diff([]string{"ocean", DefaultThemeName}, themes.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	selection, err := themes.Select("ocean", "dark")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	tokens := tokensFor(selection)
	want := DefaultTokens()
	want[TokenBrand] = "#0e7490"
	want[TokenSurface] = "#082f49"
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}

	fallback, err := themes.Select("missing", "")
	if err != nil {
		t.Fatalf("select unknown theme: %v", err)
	}
	if fallback.Manifest.Name != DefaultThemeName {
		t.Fatalf("expected fallback to %q, got %q", DefaultThemeName, fallback.Manifest.Name)
	}

	if _, err := themes.Select("ocean", "mono"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	if err := themes.Register(&theme.Manifest{}); err == nil {
		t.Fatalf("expected nameless manifest to be rejected")
	}
}

func TestRecord_JSONKeepsOrder(t *testing.T) {
	t.Parallel()

	var r Record
	if err := r.UnmarshalJSON([]byte(`{"z":1,"a":"<b>","m":null}`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "a", "m"}, r.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	out, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"z":1,"a":"<b>","m":null}` {
		t.Fatalf("unexpected json %s", out)
	}

	r.Set("z", 2).Set("n", true)
	if diff := cmp.Diff([]string{"z", "a", "m", "n"}, r.Keys()); diff != "" {
		t.Fatalf("keys after set mismatch (-want +got):\n%s", diff)
	}
}

type captureSink struct {
	artifacts []delivery.Artifact
}

func (s *captureSink) Deliver(_ context.Context, artifact delivery.Artifact) (string, error) {
	s.artifacts = append(s.artifacts, artifact)
	return "mem://" + artifact.Name, nil
}

type capturePrinter struct {
	names []string
	docs  [][]byte
}

func (p *capturePrinter) Print(_ context.Context, name string, document []byte) (string, error) {
	p.names = append(p.names, name)
	p.docs = append(p.docs, document)
	return "/tmp/" + name + ".html", nil
}

func newTestExporter(t *testing.T, logs *bytes.Buffer) (*Exporter, *captureSink, *capturePrinter) {
	t.Helper()
	sink := &captureSink{}
	printer := &capturePrinter{}
	report, err := NewReport(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	serializer, err := NewSerializer(WithReport(report))
	if err != nil {
		t.Fatalf("new serializer: %v", err)
	}
	exp, err := NewExporter(
		WithSink(sink),
		WithPrinter(printer),
		WithSerializer(serializer),
		WithNow(fixedClock),
		WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
	)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	return exp, sink, printer
}

func TestExportFormSubmissions_DeliversToSink(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	exp, sink, printer := newTestExporter(t, &logs)

	result, err := exp.ExportFormSubmissions(context.Background(), sampleSubmissions(), FormatCSV, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := Result{
		Format:   FormatCSV,
		Filename: "form-submissions-1709544600000.csv",
		Location: "mem://form-submissions-1709544600000.csv",
		Records:  2,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if len(sink.artifacts) != 1 || sink.artifacts[0].ContentType != "text/csv" {
		t.Fatalf("unexpected artifacts %+v", sink.artifacts)
	}
	if len(printer.names) != 0 {
		t.Fatalf("printer must not be used for csv")
	}

	result, err = exp.ExportFormSubmissions(context.Background(), sampleSubmissions(), FormatExcel, "weekly")
	if err != nil {
		t.Fatalf("export excel: %v", err)
	}
	if result.Filename != "weekly.xls" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}
}

func TestExportFormSubmissions_PDFGoesToPrinter(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	exp, sink, printer := newTestExporter(t, &logs)

	result, err := exp.ExportFormSubmissions(context.Background(), sampleSubmissions(), FormatPDF, "report")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !result.Printed || result.Location != "/tmp/report.html" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(sink.artifacts) != 0 {
		t.Fatalf("pdf must not reach the sink")
	}
	if !bytes.Contains(printer.docs[0], []byte("<td>Ada Lovelace</td>")) {
		t.Fatalf("printed document missing rows")
	}
}

func TestExportFormSubmissions_EmptyAndUnsupported(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	exp, sink, _ := newTestExporter(t, &logs)

	result, err := exp.ExportFormSubmissions(context.Background(), nil, FormatJSON, "empty")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Records != 0 || string(sink.artifacts[0].Data) != "[]" {
		t.Fatalf("unexpected empty export %+v %q", result, sink.artifacts[0].Data)
	}
	if !strings.Contains(logs.String(), "no data to export") {
		t.Fatalf("expected advisory, got logs:\n%s", logs.String())
	}

	_, err = exp.ExportFormSubmissions(context.Background(), sampleSubmissions(), Format("xml"), "x")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if len(sink.artifacts) != 1 {
		t.Fatalf("unsupported format must not deliver, got %d artifacts", len(sink.artifacts))
	}
}

func TestBrowserPrinter_NestedName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var opened string
	printer := &BrowserPrinter{
		Dir: dir,
		Command: func(path string) *exec.Cmd {
			opened = path
			return exec.Command(os.Args[0], "-test.run=^$")
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	path, err := printer.Print(context.Background(), "reports/2024/weekly", []byte("<html></html>"))
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if path != opened {
		t.Fatalf("opened %q, wrote %q", opened, path)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "weekly-") || filepath.Ext(path) != ".html" {
		t.Fatalf("unexpected print path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read print file: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Fatalf("unexpected print file %q", data)
	}
}
