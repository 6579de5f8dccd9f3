package rules

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrEditorClosed is returned when an editor is used after Save or Cancel.
var ErrEditorClosed = errors.New("rules: editor closed")

// DraftError lists why a draft cannot be saved, keyed by JSON path.
type DraftError struct {
	Problems map[string]string
}

func (e *DraftError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for key := range e.Problems {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key + ": " + e.Problems[key]
	}
	return "rules: invalid draft: " + strings.Join(parts, ", ")
}

// Editor is a single edit session over one rule. Changes stay on the draft
// until Save commits them; Cancel discards them.
type Editor struct {
	coll   *Collection
	draft  Rule
	isNew  bool
	closed bool
}

// NewEditor opens a session on a fresh draft.
func (c *Collection) NewEditor() *Editor {
	return &Editor{coll: c, draft: c.CreateDraft(), isNew: true}
}

// Edit opens a session on a copy of the rule with id.
func (c *Collection) Edit(id string) (*Editor, bool) {
	rule, ok := c.Rule(id)
	if !ok {
		return nil, false
	}
	return &Editor{coll: c, draft: rule}, true
}

// Draft returns a copy of the rule being edited.
func (e *Editor) Draft() Rule { return e.draft.Clone() }

// IsNew reports whether the draft has never been committed.
func (e *Editor) IsNew() bool { return e.isNew }

func (e *Editor) SetName(name string) {
	e.draft.Name = name
}

func (e *Editor) SetTriggerField(fieldID string) {
	e.draft.Trigger.FieldID = fieldID
}

func (e *Editor) SetOperator(op Operator) {
	e.draft.Trigger.Operator = op
}

func (e *Editor) SetValue(value string) {
	e.draft.Trigger.Value = value
}

func (e *Editor) SetAction(kind ActionKind) {
	e.draft.Action.Kind = kind
}

func (e *Editor) SetEnabled(enabled bool) {
	e.draft.Enabled = enabled
}

// AddTarget appends fieldID to the targets. It returns false for duplicates
// and for fields the collection does not know.
func (e *Editor) AddTarget(fieldID string) bool {
	if strings.TrimSpace(fieldID) == "" || e.draft.Targets(fieldID) {
		return false
	}
	if e.coll.fields != nil && !e.coll.fields.Has(fieldID) {
		return false
	}
	e.draft.Action.TargetFieldIDs = append(e.draft.Action.TargetFieldIDs, fieldID)
	return true
}

// RemoveTarget drops fieldID from the targets.
func (e *Editor) RemoveTarget(fieldID string) bool {
	targets := e.draft.Action.TargetFieldIDs
	for i, id := range targets {
		if id == fieldID {
			e.draft.Action.TargetFieldIDs = append(targets[:i:i], targets[i+1:]...)
			return true
		}
	}
	return false
}

// Check validates the draft without saving it.
func (e *Editor) Check() error {
	problems := map[string]string{}
	if err := ruleValidator().Struct(e.draft); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("rules: validate draft: %w", err)
		}
		for _, fe := range errs {
			problems[fieldPath(fe.Namespace())] = fe.Tag()
		}
	}
	if fields := e.coll.fields; fields != nil {
		if id := e.draft.Trigger.FieldID; id != "" && !fields.Has(id) {
			problems["trigger.fieldId"] = "unknown"
		}
		for i, id := range e.draft.Action.TargetFieldIDs {
			if id != "" && !fields.Has(id) {
				problems[fmt.Sprintf("action.targetFieldIds[%d]", i)] = "unknown"
			}
		}
	}
	if len(problems) > 0 {
		return &DraftError{Problems: problems}
	}
	return nil
}

// Save commits the draft and closes the session.
func (e *Editor) Save() (Rule, error) {
	if e.closed {
		return Rule{}, ErrEditorClosed
	}
	if err := e.Check(); err != nil {
		return Rule{}, err
	}
	e.coll.Commit(e.draft)
	e.closed = true
	return e.draft.Clone(), nil
}

// Cancel discards the draft. The collection is left untouched.
func (e *Editor) Cancel() {
	e.closed = true
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func ruleValidator() *validator.Validate {
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

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
