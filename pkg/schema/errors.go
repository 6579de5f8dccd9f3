package schema

import (
	"sort"
	"strconv"
	"strings"
)

// ValidationError splits validation failures into field level messages keyed
// by field id and form level messages.
type ValidationError struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids)+len(e.Form))
	for _, id := range ids {
		parts = append(parts, id+": "+strings.Join(e.Fields[id], "; "))
	}
	parts = append(parts, e.Form...)
	return "schema: invalid submission: " + strings.Join(parts, ", ")
}

// MergeFormErrors concatenates form level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrors attributes messages keyed by JSON pointer or dotted paths to the
// known field ids. Paths that do not resolve to a field become form level
// messages so nothing is lost.
func MapErrors(known map[string]struct{}, payload map[string][]string) *ValidationError {
	out := &ValidationError{Fields: make(map[string][]string)}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		id, ok := fieldFor(key, known)
		if !ok {
			out.Form = append(out.Form, messages...)
			continue
		}
		out.Fields[id] = normalizeMessages(append(out.Fields[id], messages...))
	}
	if len(out.Fields) == 0 {
		out.Fields = nil
	}
	out.Form = normalizeMessages(out.Form)
	return out
}

// fieldFor returns the first path segment naming a known field. Fields are
// flat, so nested segments such as array indexes belong to their parent.
func fieldFor(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	for _, segment := range pathSegments(raw) {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if _, ok := known[segment]; ok {
			return segment, true
		}
		if !isWrapper(segment) {
			return "", false
		}
	}
	return "", false
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func isWrapper(segment string) bool {
	switch strings.ToLower(segment) {
	case "body", "data", "values", "payload":
		return true
	}
	return false
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors":
		return true
	}
	return false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
