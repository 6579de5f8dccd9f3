package fields

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Category groups descriptors for display in the component library.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryAdvanced Category = "advanced"
	CategoryLayout   Category = "layout"
)

// Categories lists the display order of descriptor groups.
var Categories = []Category{CategoryBasic, CategoryAdvanced, CategoryLayout}

// Built-in field type identifiers.
const (
	TypeText      = "text"
	TypeEmail     = "email"
	TypePhone     = "phone"
	TypeTextarea  = "textarea"
	TypeNumber    = "number"
	TypeDate      = "date"
	TypeSelect    = "select"
	TypeRadio     = "radio"
	TypeCheckbox  = "checkbox"
	TypeToggle    = "toggle"
	TypeFile      = "file"
	TypeRating    = "rating"
	TypeHeading1  = "heading1"
	TypeHeading2  = "heading2"
	TypeTextBlock = "text-block"
	TypeSeparator = "separator"
	TypeColumns   = "columns"
	TypeSection   = "section"
)

// Descriptor is a catalog entry describing a selectable field type. The JSON
// shape doubles as the drag payload carried from the library to the canvas.
type Descriptor struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	DisplayName string   `json:"name" yaml:"name" validate:"required"`
	Category    Category `json:"category" yaml:"category" validate:"required,oneof=basic advanced layout"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Group is a category with its descriptors in registration order.
type Group struct {
	Category    Category
	Descriptors []Descriptor
}

// ErrInvalidDescriptor is returned when Register receives an incomplete
// descriptor.
var ErrInvalidDescriptor = errors.New("fields: invalid descriptor")

// Registry is the field-type catalog. Lookups are safe for concurrent use;
// entries are expected to be registered once during setup.
type Registry struct {
	mu      sync.RWMutex
	entries []Descriptor
	index   map[string]int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Default returns a registry seeded with the built-in descriptors.
func Default() *Registry {
	reg := NewRegistry()
	for _, desc := range builtins {
		if err := reg.Register(desc); err != nil {
			panic(err)
		}
	}
	return reg
}

// Register adds a descriptor. Registering an id twice replaces the earlier
// entry in place, keeping its position.
func (r *Registry) Register(desc Descriptor) error {
	if r == nil {
		return errors.New("fields: registry is nil")
	}
	desc.ID = strings.TrimSpace(desc.ID)
	desc.DisplayName = strings.TrimSpace(desc.DisplayName)
	if err := descriptorValidator().Struct(desc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDescriptor, describeValidation(err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.index[desc.ID]; ok {
		r.entries[idx] = desc
		return nil
	}
	r.index[desc.ID] = len(r.entries)
	r.entries = append(r.entries, desc)
	return nil
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[strings.TrimSpace(id)]
	if !ok {
		return Descriptor{}, false
	}
	return r.entries[idx], true
}

// List returns every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Descriptor(nil), r.entries...)
}

// Grouped returns the descriptors bucketed by category, in Categories order.
// Empty categories are omitted.
func (r *Registry) Grouped() []Group {
	all := r.List()
	groups := make([]Group, 0, len(Categories))
	for _, category := range Categories {
		group := Group{Category: category}
		for _, desc := range all {
			if desc.Category == category {
				group.Descriptors = append(group.Descriptors, desc)
			}
		}
		if len(group.Descriptors) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// IsChoice reports whether fields of typeID carry an option list.
func IsChoice(typeID string) bool {
	switch typeID {
	case TypeSelect, TypeRadio, TypeCheckbox:
		return true
	default:
		return false
	}
}

// IsLayout reports whether typeID is a built-in layout element that collects
// no input.
func IsLayout(typeID string) bool {
	for _, desc := range builtins {
		if desc.ID == typeID {
			return desc.Category == CategoryLayout
		}
	}
	return false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func descriptorValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func describeValidation(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
