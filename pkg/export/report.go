package export

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
)

// DefaultReportTitle heads generated reports.
const DefaultReportTitle = "Form Submissions Report"

const reportTemplate = "report.html"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in report templates so callers can copy and
// customise them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Report renders records as a printable HTML document: a title, the
// generation time, the record count and a table mirroring the csv columns.
type Report struct {
	engine   *engine
	title    string
	intro    string
	now      func() time.Time
	selector theme.ThemeSelector
	theme    string
	variant  string
}

// ReportOption configures a Report.
type ReportOption func(*reportConfig)

type reportConfig struct {
	title     string
	intro     string
	now       func() time.Time
	templates fs.FS
	selector  theme.ThemeSelector
	theme     string
	variant   string
}

// WithTitle overrides DefaultReportTitle.
func WithTitle(title string) ReportOption {
	return func(cfg *reportConfig) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			cfg.title = trimmed
		}
	}
}

// WithIntro adds a paragraph of markup under the report header. Only basic
// formatting and links survive sanitising.
func WithIntro(markup string) ReportOption {
	return func(cfg *reportConfig) {
		cfg.intro = strings.TrimSpace(markup)
	}
}

// WithClock sets the time source used for the generation timestamp.
func WithClock(now func() time.Time) ReportOption {
	return func(cfg *reportConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithTemplates replaces the embedded templates. The FS must contain
// report.html.tpl.
func WithTemplates(files fs.FS) ReportOption {
	return func(cfg *reportConfig) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// WithTheme resolves report colours through selector.
func WithTheme(selector theme.ThemeSelector, name, variant string) ReportOption {
	return func(cfg *reportConfig) {
		cfg.selector = selector
		cfg.theme = strings.TrimSpace(name)
		cfg.variant = strings.TrimSpace(variant)
	}
}

// NewReport builds a report renderer.
func NewReport(opts ...ReportOption) (*Report, error) {
	cfg := reportConfig{
		title:     DefaultReportTitle,
		now:       time.Now,
		templates: TemplatesFS(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	eng, err := newEngine(cfg.templates, ".tpl")
	if err != nil {
		return nil, err
	}
	return &Report{
		engine:   eng,
		title:    cfg.title,
		intro:    cfg.intro,
		now:      cfg.now,
		selector: cfg.selector,
		theme:    cfg.theme,
		variant:  cfg.variant,
	}, nil
}

// reportView is the template context.
type reportView struct {
	Title       string            `json:"title"`
	Intro       string            `json:"intro"`
	GeneratedAt string            `json:"generated_at"`
	ReportDate  string            `json:"report_date"`
	Count       string            `json:"count"`
	Headers     []string          `json:"headers"`
	Rows        [][]string        `json:"rows"`
	Tokens      map[string]string `json:"tokens"`
}

// Render produces the HTML document for records.
func (r *Report) Render(records []*Record) ([]byte, error) {
	tokens, err := r.tokens()
	if err != nil {
		return nil, err
	}
	now := r.now()
	headers := Columns(records)
	if headers == nil {
		headers = []string{}
	}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(headers))
		for i, header := range headers {
			value, _ := record.Get(header)
			row[i] = CellString(value)
		}
		rows = append(rows, row)
	}
	view := reportView{
		Title:       r.title,
		Intro:       r.intro,
		GeneratedAt: now.Format("January 2, 2006 15:04 MST"),
		ReportDate:  now.Format("Jan 2, 2006"),
		Count:       strconv.Itoa(len(records)),
		Headers:     headers,
		Rows:        rows,
		Tokens:      tokens,
	}
	out, err := r.engine.render(reportTemplate, view)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Report) tokens() (map[string]string, error) {
	if r.selector == nil {
		return DefaultTokens(), nil
	}
	selection, err := r.selector.Select(r.theme, r.variant)
	if err != nil {
		return nil, fmt.Errorf("export: select report theme: %w", err)
	}
	return tokensFor(selection), nil
}
