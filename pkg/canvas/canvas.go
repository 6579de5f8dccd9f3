package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/internal/ident"
	"github.com/goliatone/go-formbuilder/pkg/fields"
)

var (
	// ErrMalformedPayload is returned by Drop when the drag payload cannot be
	// decoded into a descriptor. The canvas is left unchanged.
	ErrMalformedPayload = errors.New("canvas: malformed drop payload")
	// ErrFieldNotFound is returned by Configure for unknown field ids.
	ErrFieldNotFound = errors.New("canvas: field not found")
	// ErrInvalidOptions is returned when an option list would break the
	// choice-type invariant.
	ErrInvalidOptions = errors.New("canvas: invalid options")
	// ErrDuplicateID is returned by Load when two fields share an id.
	ErrDuplicateID = errors.New("canvas: duplicate field id")
)

// DefaultOptions seeds the option list of new choice fields.
var DefaultOptions = []string{"Option 1", "Option 2", "Option 3"}

// Field is a concrete field instance placed on the canvas.
type Field struct {
	ID          string   `json:"id" yaml:"id"`
	TypeID      string   `json:"type" yaml:"type"`
	Label       string   `json:"label" yaml:"label"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool     `json:"required" yaml:"required"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Visible     bool     `json:"visible" yaml:"visible"`
}

// UnmarshalJSON decodes a field, treating a missing visible flag as true.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	decoded := plain{Visible: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*f = Field(decoded)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	type plain Field
	decoded := plain{Visible: true}
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*f = Field(decoded)
	return nil
}

// Snapshot is a read-only copy of the canvas handed to renderers and
// observers.
type Snapshot struct {
	Fields   []Field `json:"fields"`
	Selected string  `json:"selected,omitempty"`
}

// Observer is notified after every committed mutation.
type Observer func(Snapshot)

// Settings carries field-settings edits. Nil pointers and a nil Options slice
// leave the current value untouched.
type Settings struct {
	Label       *string
	Placeholder *string
	Required    *bool
	Options     []string
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithIDGenerator overrides the field id generator.
func WithIDGenerator(gen ident.Generator) Option {
	return func(c *Canvas) {
		if gen != nil {
			c.ids = gen
		}
	}
}

// WithLogger sets the logger used for local, non-fatal reports.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Canvas) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Canvas owns the ordered field list of a form and the current selection.
// It has a single writer: methods must not be called concurrently.
type Canvas struct {
	fields    []Field
	selected  string
	ids       ident.Generator
	logger    *slog.Logger
	observers []observerEntry
	nextObs   int
}

type observerEntry struct {
	id int
	fn Observer
}

// New returns an empty canvas.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		ids:    ident.UUID{Prefix: "field_"},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// InsertAt creates a field from desc and inserts it at index, shifting later
// fields right. The index is clamped to [0, Len()].
func (c *Canvas) InsertAt(desc fields.Descriptor, index int) Field {
	field := c.newField(desc)
	index = clamp(index, 0, len(c.fields))

	c.fields = append(c.fields, Field{})
	copy(c.fields[index+1:], c.fields[index:])
	c.fields[index] = field

	c.notify()
	return cloneField(field)
}

// Append adds a field after the last one.
func (c *Canvas) Append(desc fields.Descriptor) Field {
	return c.InsertAt(desc, len(c.fields))
}

// Drop decodes a drag payload carrying a descriptor and inserts the field at
// index. Malformed payloads are logged and reported without touching state.
func (c *Canvas) Drop(payload []byte, index int) (Field, error) {
	var desc fields.Descriptor
	if err := json.Unmarshal(payload, &desc); err != nil {
		c.logger.Warn("failed to parse dropped field data", "error", err)
		return Field{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(desc.ID) == "" || strings.TrimSpace(desc.DisplayName) == "" {
		c.logger.Warn("failed to parse dropped field data", "error", "missing id or name")
		return Field{}, fmt.Errorf("%w: missing id or name", ErrMalformedPayload)
	}
	return c.InsertAt(desc, index), nil
}

// Remove deletes the field with id. Unknown ids are ignored. Removing the
// selected field clears the selection.
func (c *Canvas) Remove(id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.fields = append(c.fields[:idx], c.fields[idx+1:]...)
	if c.selected == id {
		c.selected = ""
	}
	c.notify()
}

// Move repositions the field with id so it ends up at index (clamped). Other
// fields keep their relative order.
func (c *Canvas) Move(id string, index int) {
	from := c.indexOf(id)
	if from < 0 {
		return
	}
	to := clamp(index, 0, len(c.fields)-1)
	if to == from {
		return
	}
	field := c.fields[from]
	c.fields = append(c.fields[:from], c.fields[from+1:]...)
	c.fields = append(c.fields, Field{})
	copy(c.fields[to+1:], c.fields[to:])
	c.fields[to] = field
	c.notify()
}

// ToggleVisible flips the visibility flag of the field with id.
func (c *Canvas) ToggleVisible(id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.fields[idx].Visible = !c.fields[idx].Visible
	c.notify()
}

// Select points the selection at id. An empty id clears it; unknown ids are
// ignored.
func (c *Canvas) Select(id string) {
	if id == "" {
		c.ClearSelection()
		return
	}
	if c.indexOf(id) < 0 || c.selected == id {
		return
	}
	c.selected = id
	c.notify()
}

// ClearSelection drops the current selection.
func (c *Canvas) ClearSelection() {
	if c.selected == "" {
		return
	}
	c.selected = ""
	c.notify()
}

// Configure applies field-settings edits to the field with id.
func (c *Canvas) Configure(id string, settings Settings) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, id)
	}
	field := c.fields[idx]
	if settings.Options != nil {
		if !fields.IsChoice(field.TypeID) {
			return fmt.Errorf("%w: %s fields take no options", ErrInvalidOptions, field.TypeID)
		}
		if len(settings.Options) == 0 {
			return fmt.Errorf("%w: %s fields need at least one option", ErrInvalidOptions, field.TypeID)
		}
		field.Options = append([]string(nil), settings.Options...)
	}
	if settings.Label != nil {
		field.Label = *settings.Label
	}
	if settings.Placeholder != nil {
		field.Placeholder = *settings.Placeholder
	}
	if settings.Required != nil {
		field.Required = *settings.Required
	}
	c.fields[idx] = field
	c.notify()
	return nil
}

// Load replaces the whole field list, keeping the supplied ids. It is used
// when restoring a saved form. The selection is cleared.
func (c *Canvas) Load(list []Field) error {
	seen := make(map[string]struct{}, len(list))
	loaded := make([]Field, 0, len(list))
	for _, field := range list {
		if strings.TrimSpace(field.ID) == "" {
			return fmt.Errorf("canvas: field of type %q has no id", field.TypeID)
		}
		if _, ok := seen[field.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, field.ID)
		}
		seen[field.ID] = struct{}{}
		choice := fields.IsChoice(field.TypeID)
		if choice && len(field.Options) == 0 {
			return fmt.Errorf("%w: field %s needs options", ErrInvalidOptions, field.ID)
		}
		if !choice && len(field.Options) > 0 {
			return fmt.Errorf("%w: field %s takes no options", ErrInvalidOptions, field.ID)
		}
		loaded = append(loaded, cloneField(field))
	}
	c.fields = loaded
	c.selected = ""
	c.notify()
	return nil
}

// Fields returns a copy of the ordered field list.
func (c *Canvas) Fields() []Field {
	out := make([]Field, len(c.fields))
	for i, field := range c.fields {
		out[i] = cloneField(field)
	}
	return out
}

// Field returns a copy of the field with id.
func (c *Canvas) Field(id string) (Field, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return Field{}, false
	}
	return cloneField(c.fields[idx]), true
}

// Has reports whether a field with id exists.
func (c *Canvas) Has(id string) bool {
	return c.indexOf(id) >= 0
}

// Len returns the number of fields.
func (c *Canvas) Len() int {
	return len(c.fields)
}

// Selected returns the selected field id, or "" when nothing is selected.
func (c *Canvas) Selected() string {
	return c.selected
}

// Snapshot returns a copy of the current state.
func (c *Canvas) Snapshot() Snapshot {
	return Snapshot{Fields: c.Fields(), Selected: c.selected}
}

// Subscribe registers fn to run after every committed mutation and returns a
// function that removes it.
func (c *Canvas) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	return func() {
		for i, entry := range c.observers {
			if entry.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Canvas) notify() {
	if len(c.observers) == 0 {
		return
	}
	observers := append([]observerEntry(nil), c.observers...)
	for _, entry := range observers {
		entry.fn(c.Snapshot())
	}
}

func (c *Canvas) newField(desc fields.Descriptor) Field {
	name := strings.TrimSpace(desc.DisplayName)
	// Loaded documents may already hold ids the generator hands out.
	id := c.ids.Next()
	for c.indexOf(id) >= 0 {
		id = c.ids.Next()
	}
	field := Field{
		ID:          id,
		TypeID:      strings.TrimSpace(desc.ID),
		Label:       name,
		Placeholder: "Enter " + cases.Lower(language.Und).String(name),
		Visible:     true,
	}
	if fields.IsChoice(field.TypeID) {
		field.Options = append([]string(nil), DefaultOptions...)
	}
	return field
}

func (c *Canvas) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.fields {
		if c.fields[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneField(field Field) Field {
	if field.Options != nil {
		field.Options = append([]string(nil), field.Options...)
	}
	return field
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
