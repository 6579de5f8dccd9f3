// Package formbuilder wires the field registry, the canvas, the rule
// collection and the submission schema into a single builder session.
package formbuilder

import (
	"io/fs"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/internal/ident"
	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/rules"
	"github.com/goliatone/go-formbuilder/pkg/schema"
)

// Publisher receives a frame after every change. *preview.Hub satisfies it.
type Publisher interface {
	Publish(frame preview.Frame) error
}

// Evaluation is the outcome of running the rules against a set of values.
type Evaluation struct {
	Actions []rules.ResolvedAction `json:"actions"`
	States  rules.FieldStates      `json:"states"`
}

// Option configures a Builder.
type Option func(*config)

type config struct {
	registry  *fields.Registry
	logger    *slog.Logger
	fieldIDs  ident.Generator
	ruleIDs   ident.Generator
	publisher Publisher
	title     string
}

// WithRegistry replaces the built-in field catalog.
func WithRegistry(registry *fields.Registry) Option {
	return func(cfg *config) {
		cfg.registry = registry
	}
}

// WithLogger sets the logger shared by the canvas and the builder.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithFieldIDs overrides field id generation.
func WithFieldIDs(gen ident.Generator) Option {
	return func(cfg *config) {
		cfg.fieldIDs = gen
	}
}

// WithRuleIDs overrides rule id generation.
func WithRuleIDs(gen ident.Generator) Option {
	return func(cfg *config) {
		cfg.ruleIDs = gen
	}
}

// WithPublisher streams builder state after every change.
func WithPublisher(p Publisher) Option {
	return func(cfg *config) {
		cfg.publisher = p
	}
}

// WithTitle names the form.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// Builder is one editing session. Like the models it wraps, it has a single
// writer.
type Builder struct {
	registry  *fields.Registry
	canvas    *canvas.Canvas
	rules     *rules.Collection
	publisher Publisher
	logger    *slog.Logger
	title     string
	values    rules.Values
}

// New assembles a builder. The canvas doubles as the rule collection's field
// set, so rules referencing removed fields become incomplete.
func New(opts ...Option) *Builder {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = fields.Default()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	c := canvas.New(canvas.WithIDGenerator(cfg.fieldIDs), canvas.WithLogger(cfg.logger))
	b := &Builder{
		registry:  cfg.registry,
		canvas:    c,
		rules:     rules.New(rules.WithFields(c), rules.WithIDGenerator(cfg.ruleIDs)),
		publisher: cfg.publisher,
		logger:    cfg.logger,
		title:     cfg.title,
		values:    rules.Values{},
	}
	if b.publisher != nil {
		b.canvas.Subscribe(func(canvas.Snapshot) { b.publish() })
		b.rules.Subscribe(func([]rules.Rule) { b.publish() })
	}
	return b
}

func (b *Builder) Registry() *fields.Registry { return b.registry }
func (b *Builder) Canvas() *canvas.Canvas     { return b.canvas }
func (b *Builder) Rules() *rules.Collection   { return b.rules }
func (b *Builder) Title() string              { return b.title }

// SetTitle renames the form.
func (b *Builder) SetTitle(title string) {
	b.title = title
	b.publish()
}

// SetValues records the current preview values and republishes.
func (b *Builder) SetValues(values rules.Values) {
	b.values = make(rules.Values, len(values))
	for k, v := range values {
		b.values[k] = v
	}
	b.publish()
}

// Evaluate runs the rules against values and resolves every field's state.
func (b *Builder) Evaluate(values rules.Values) Evaluation {
	actions := b.rules.Evaluate(values)
	if actions == nil {
		actions = []rules.ResolvedAction{}
	}
	return Evaluation{
		Actions: actions,
		States:  rules.Resolve(actions, b.canvas.Fields()),
	}
}

// Schema builds the submission schema for the state values put the form in.
func (b *Builder) Schema(values rules.Values) *openapi3.Schema {
	return schema.Build(b.canvas.Fields(), b.Evaluate(values).States)
}

// ValidateSubmission checks values against the schema they produce. It
// returns nil or a *schema.ValidationError.
func (b *Builder) ValidateSubmission(values rules.Values) error {
	return schema.Validate(b.Schema(values), values)
}

// Document captures the session.
func (b *Builder) Document() document.Document {
	return document.Capture(b.title, b.canvas, b.rules)
}

// Restore replaces the session with doc.
func (b *Builder) Restore(doc document.Document) error {
	if doc.Title != "" {
		b.title = doc.Title
	}
	return document.Restore(doc, b.canvas, b.rules)
}

// Frame snapshots the session for preview clients.
func (b *Builder) Frame() preview.Frame {
	snap := b.canvas.Snapshot()
	eval := b.Evaluate(b.values)
	return preview.Frame{
		Title:    b.title,
		Fields:   snap.Fields,
		Selected: snap.Selected,
		Rules:    b.rules.Rules(),
		Actions:  eval.Actions,
		States:   eval.States,
	}
}

func (b *Builder) publish() {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(b.Frame()); err != nil {
		b.logger.Warn("publish preview frame", "error", err)
	}
}

// ReportTemplates exposes the built-in export report templates so callers can
// copy and customise them.
func ReportTemplates() fs.FS {
	return export.TemplatesFS()
}
