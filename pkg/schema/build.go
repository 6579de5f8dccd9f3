package schema

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

// Patterns applied to typed text inputs.
const (
	EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	PhonePattern = `^\+?[0-9][0-9\s\-().]{6,}$`
	DatePattern  = `^\d{4}-\d{2}-\d{2}$`
)

// Rating bounds.
const (
	RatingMin = 1
	RatingMax = 5
)

// Build returns an object schema with one property per active input field.
// Layout fields, hidden fields and skipped fields are left out. states may be
// nil, in which case each field's own flags apply.
func Build(list []canvas.Field, states rules.FieldStates) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Required = []string{}
	for _, field := range list {
		if fields.IsLayout(field.TypeID) {
			continue
		}
		state, ok := states[field.ID]
		if !ok {
			state = rules.FieldState{Visible: field.Visible, Required: field.Required}
		}
		if !state.Active() {
			continue
		}
		prop := propertySchema(field, state.Required)
		prop.Title = field.Label
		root.WithProperty(field.ID, prop)
		if state.Required {
			root.Required = append(root.Required, field.ID)
		}
	}
	return root
}

func propertySchema(field canvas.Field, required bool) *openapi3.Schema {
	switch field.TypeID {
	case fields.TypeEmail:
		return textSchema(required).WithPattern(EmailPattern)
	case fields.TypePhone:
		return textSchema(required).WithPattern(PhonePattern)
	case fields.TypeDate:
		return textSchema(required).WithPattern(DatePattern)
	case fields.TypeNumber:
		return openapi3.NewFloat64Schema()
	case fields.TypeRating:
		return openapi3.NewFloat64Schema().WithMin(RatingMin).WithMax(RatingMax)
	case fields.TypeToggle:
		return openapi3.NewBoolSchema()
	case fields.TypeSelect, fields.TypeRadio:
		return textSchema(required).WithEnum(enumValues(field.Options)...)
	case fields.TypeCheckbox:
		items := openapi3.NewStringSchema().WithEnum(enumValues(field.Options)...)
		prop := openapi3.NewArraySchema().WithItems(items)
		prop.UniqueItems = true
		if required {
			prop.WithMinItems(1)
		}
		return prop
	default:
		return textSchema(required)
	}
}

func textSchema(required bool) *openapi3.Schema {
	s := openapi3.NewStringSchema()
	if required {
		s.WithMinLength(1)
	}
	return s
}

func enumValues(options []string) []any {
	out := make([]any, len(options))
	for i, option := range options {
		out[i] = option
	}
	return out
}
