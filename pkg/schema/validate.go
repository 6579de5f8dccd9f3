package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate checks values against s. It returns nil or a *ValidationError.
// Values are normalised first: nil entries and blank optional entries count
// as absent, and text input is coerced to the property's type where it
// parses.
func Validate(s *openapi3.Schema, values map[string]any) error {
	if s == nil {
		return errors.New("schema: nil schema")
	}
	doc, err := normalize(s, values)
	if err != nil {
		return err
	}
	err = s.VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	payload := map[string][]string{}
	collect(err, payload)
	known := make(map[string]struct{}, len(s.Properties))
	for name := range s.Properties {
		known[name] = struct{}{}
	}
	mapped := MapErrors(known, payload)
	if len(mapped.Fields) == 0 && len(mapped.Form) == 0 {
		mapped.Form = []string{err.Error()}
	}
	return mapped
}

func collect(err error, payload map[string][]string) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, inner := range multi {
			collect(inner, payload)
		}
		return
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		key := "/" + strings.Join(schemaErr.JSONPointer(), "/")
		payload[key] = append(payload[key], schemaErr.Reason)
		return
	}
	payload[""] = append(payload[""], err.Error())
}

func normalize(s *openapi3.Schema, values map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("schema: encode values: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: decode values: %w", err)
	}
	for key, value := range doc {
		if value == nil {
			delete(doc, key)
			continue
		}
		ref, ok := s.Properties[key]
		if !ok || ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		if text, ok := value.(string); ok && strings.TrimSpace(text) == "" && !slices.Contains(s.Required, key) {
			delete(doc, key)
			continue
		}
		doc[key] = coerce(prop, value)
	}
	return doc, nil
}

func coerce(prop *openapi3.Schema, value any) any {
	text, ok := value.(string)
	if !ok || prop.Type == nil {
		return value
	}
	switch {
	case prop.Type.Is(openapi3.TypeNumber), prop.Type.Is(openapi3.TypeInteger):
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return f
		}
	case prop.Type.Is(openapi3.TypeBoolean):
		if b, err := strconv.ParseBool(strings.TrimSpace(text)); err == nil {
			return b
		}
	case prop.Type.Is(openapi3.TypeArray):
		parts := strings.Split(text, ",")
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return value
}
