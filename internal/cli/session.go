package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

// Build session menu entries, in display order.
const (
	MenuAddField    = "Add field"
	MenuConfigure   = "Configure field"
	MenuMove        = "Move field"
	MenuRemove      = "Remove field"
	MenuToggleField = "Show/hide field"
	MenuAddRule     = "Add rule"
	MenuEditRule    = "Edit rule"
	MenuToggleRule  = "Enable/disable rule"
	MenuDeleteRule  = "Delete rule"
	MenuTryValues   = "Try values"
	MenuRename      = "Rename form"
	MenuSave        = "Save and exit"
	MenuQuit        = "Quit without saving"
)

var menu = []string{
	MenuAddField,
	MenuConfigure,
	MenuMove,
	MenuRemove,
	MenuToggleField,
	MenuAddRule,
	MenuEditRule,
	MenuToggleRule,
	MenuDeleteRule,
	MenuTryValues,
	MenuRename,
	MenuSave,
	MenuQuit,
}

// menuIndex returns the position of entry in the build menu.
func menuIndex(entry string) int {
	return indexOf(menu, entry)
}

// session drives a Builder through prompts.
type session struct {
	b       *formbuilder.Builder
	prompts PromptDriver
	values  rules.Values
}

func newSession(b *formbuilder.Builder, prompts PromptDriver) *session {
	return &session{b: b, prompts: prompts, values: rules.Values{}}
}

// Run shows the menu until the user saves or quits. It reports whether the
// form should be saved.
func (s *session) Run(ctx context.Context) (bool, error) {
	for {
		idx, err := s.prompts.Select(ctx, SelectConfig{
			Message:  fmt.Sprintf("%s (%d fields, %d rules)", s.b.Title(), s.b.Canvas().Len(), s.b.Rules().Len()),
			Options:  menu,
			PageSize: len(menu),
		})
		if err != nil {
			return false, err
		}
		if idx < 0 || idx >= len(menu) {
			continue
		}

		switch menu[idx] {
		case MenuSave:
			return true, nil
		case MenuQuit:
			discard, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Discard changes?"})
			if err != nil {
				return false, err
			}
			if discard {
				return false, nil
			}
			continue
		}

		if err := s.dispatch(ctx, menu[idx]); err != nil {
			return false, err
		}
	}
}

func (s *session) dispatch(ctx context.Context, entry string) error {
	switch entry {
	case MenuAddField:
		return s.addField(ctx)
	case MenuConfigure:
		return s.configureField(ctx)
	case MenuMove:
		return s.moveField(ctx)
	case MenuRemove:
		return s.removeField(ctx)
	case MenuToggleField:
		return s.toggleField(ctx)
	case MenuAddRule:
		return s.editRule(ctx, s.b.Rules().NewEditor())
	case MenuEditRule:
		id, ok, err := s.pickRule(ctx)
		if err != nil || !ok {
			return err
		}
		editor, ok := s.b.Rules().Edit(id)
		if !ok {
			return nil
		}
		return s.editRule(ctx, editor)
	case MenuToggleRule:
		id, ok, err := s.pickRule(ctx)
		if err != nil || !ok {
			return err
		}
		s.b.Rules().ToggleEnabled(id)
		return nil
	case MenuDeleteRule:
		return s.deleteRule(ctx)
	case MenuTryValues:
		return s.tryValues(ctx)
	case MenuRename:
		title, err := s.prompts.Input(ctx, InputConfig{Message: "Form title", Default: s.b.Title()})
		if err != nil {
			return err
		}
		if title = strings.TrimSpace(title); title != "" {
			s.b.SetTitle(title)
		}
		return nil
	}
	return nil
}

func (s *session) addField(ctx context.Context) error {
	catalog := s.b.Registry().List()
	options := make([]string, len(catalog))
	for i, desc := range catalog {
		options[i] = fmt.Sprintf("%s (%s)", desc.DisplayName, desc.Category)
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{Message: "Field type", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(catalog) {
		return nil
	}
	field := s.b.Canvas().Append(catalog[idx])
	s.b.Canvas().Select(field.ID)
	return s.prompts.Info(ctx, fmt.Sprintf("Added %s (%s)", field.Label, field.ID))
}

func (s *session) configureField(ctx context.Context) error {
	field, ok, err := s.pickField(ctx, "Configure which field?")
	if err != nil || !ok {
		return err
	}
	s.b.Canvas().Select(field.ID)

	label, err := s.prompts.Input(ctx, InputConfig{Message: "Label", Default: field.Label})
	if err != nil {
		return err
	}
	settings := canvas.Settings{Label: &label}

	if !fields.IsLayout(field.TypeID) {
		placeholder, err := s.prompts.Input(ctx, InputConfig{Message: "Placeholder", Default: field.Placeholder})
		if err != nil {
			return err
		}
		required, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Required?", Default: field.Required})
		if err != nil {
			return err
		}
		settings.Placeholder = &placeholder
		settings.Required = &required
	}

	if fields.IsChoice(field.TypeID) {
		raw, err := s.prompts.TextArea(ctx, TextAreaConfig{
			Message: "Options (one per line)",
			Default: strings.Join(field.Options, "\n"),
		})
		if err != nil {
			return err
		}
		settings.Options = splitLines(raw)
	}

	if err := s.b.Canvas().Configure(field.ID, settings); err != nil {
		return s.prompts.Info(ctx, err.Error())
	}
	return nil
}

func (s *session) moveField(ctx context.Context) error {
	field, ok, err := s.pickField(ctx, "Move which field?")
	if err != nil || !ok {
		return err
	}
	list := s.b.Canvas().Fields()
	positions := make([]string, len(list))
	current := 0
	for i, f := range list {
		positions[i] = strconv.Itoa(i + 1)
		if f.ID == field.ID {
			current = i
		}
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{Message: "New position", Options: positions, DefaultIndex: current})
	if err != nil {
		return err
	}
	if idx >= 0 {
		s.b.Canvas().Move(field.ID, idx)
	}
	return nil
}

func (s *session) removeField(ctx context.Context) error {
	field, ok, err := s.pickField(ctx, "Remove which field?")
	if err != nil || !ok {
		return err
	}
	confirm, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Remove %s?", field.Label)})
	if err != nil || !confirm {
		return err
	}
	s.b.Canvas().Remove(field.ID)
	delete(s.values, field.ID)
	return nil
}

func (s *session) toggleField(ctx context.Context) error {
	field, ok, err := s.pickField(ctx, "Show or hide which field?")
	if err != nil || !ok {
		return err
	}
	s.b.Canvas().ToggleVisible(field.ID)
	state := "visible"
	if field.Visible {
		state = "hidden"
	}
	return s.prompts.Info(ctx, fmt.Sprintf("%s is now %s", field.Label, state))
}

// editRule walks the editor through every rule setting and saves it. A
// rejected draft can be edited again or abandoned.
func (s *session) editRule(ctx context.Context, editor *rules.Editor) error {
	inputs := s.inputFields()
	if len(inputs) == 0 {
		return s.prompts.Info(ctx, "Add an input field before creating rules.")
	}
	all := s.b.Canvas().Fields()

	for {
		draft := editor.Draft()

		name, err := s.prompts.Input(ctx, InputConfig{Message: "Rule name", Default: draft.Name})
		if err != nil {
			return err
		}
		editor.SetName(strings.TrimSpace(name))

		idx, err := s.prompts.Select(ctx, SelectConfig{
			Message:      "When field",
			Options:      fieldOptions(inputs),
			DefaultIndex: fieldIndex(inputs, draft.Trigger.FieldID),
		})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(inputs) {
			editor.SetTriggerField(inputs[idx].ID)
		}

		opLabels := make([]string, len(rules.Operators))
		opDefault := 0
		for i, op := range rules.Operators {
			opLabels[i] = rules.OperatorLabel(op)
			if op == draft.Trigger.Operator {
				opDefault = i
			}
		}
		idx, err = s.prompts.Select(ctx, SelectConfig{Message: "Operator", Options: opLabels, DefaultIndex: opDefault})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(rules.Operators) {
			editor.SetOperator(rules.Operators[idx])
		}

		value, err := s.prompts.Input(ctx, InputConfig{Message: "Value", Default: draft.Trigger.Value})
		if err != nil {
			return err
		}
		editor.SetValue(value)

		actionLabels := make([]string, len(rules.ActionKinds))
		actionDefault := 0
		for i, kind := range rules.ActionKinds {
			actionLabels[i] = rules.ActionLabel(kind)
			if kind == draft.Action.Kind {
				actionDefault = i
			}
		}
		idx, err = s.prompts.Select(ctx, SelectConfig{Message: "Then", Options: actionLabels, DefaultIndex: actionDefault})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(rules.ActionKinds) {
			editor.SetAction(rules.ActionKinds[idx])
		}

		var defaults []int
		for _, id := range draft.Action.TargetFieldIDs {
			if i := fieldIndex(all, id); i >= 0 {
				defaults = append(defaults, i)
			}
		}
		picked, err := s.prompts.MultiSelect(ctx, SelectConfig{
			Message:  "Target fields",
			Options:  fieldOptions(all),
			Defaults: defaults,
		})
		if err != nil {
			return err
		}
		for _, id := range draft.Action.TargetFieldIDs {
			editor.RemoveTarget(id)
		}
		for _, i := range picked {
			if i >= 0 && i < len(all) {
				editor.AddTarget(all[i].ID)
			}
		}

		enabled, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Enabled?", Default: draft.Enabled})
		if err != nil {
			return err
		}
		editor.SetEnabled(enabled)

		rule, err := editor.Save()
		if err == nil {
			return s.prompts.Info(ctx, fmt.Sprintf("Saved %s: %s, %s", rule.Name, rules.Describe(rule, s.labelOf), rules.Summarize(rule, s.labelOf)))
		}
		var draftErr *rules.DraftError
		if !errors.As(err, &draftErr) {
			return err
		}
		if err := s.prompts.Info(ctx, draftErr.Error()); err != nil {
			return err
		}
		again, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Edit the rule again?", Default: true})
		if err != nil {
			return err
		}
		if !again {
			editor.Cancel()
			return nil
		}
	}
}

func (s *session) deleteRule(ctx context.Context) error {
	id, ok, err := s.pickRule(ctx)
	if err != nil || !ok {
		return err
	}
	confirm, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Delete this rule?"})
	if err != nil || !confirm {
		return err
	}
	s.b.Rules().Delete(id)
	return nil
}

// tryValues prompts for every field a rule listens to, then shows the
// outcome.
func (s *session) tryValues(ctx context.Context) error {
	triggers := map[string]struct{}{}
	for _, rule := range s.b.Rules().Rules() {
		triggers[rule.Trigger.FieldID] = struct{}{}
	}
	if len(triggers) == 0 {
		return s.prompts.Info(ctx, "No rules to try.")
	}
	for _, field := range s.b.Canvas().Fields() {
		if _, ok := triggers[field.ID]; !ok {
			continue
		}
		current := ""
		if v, ok := s.values[field.ID]; ok {
			current = fmt.Sprint(v)
		}
		value, err := s.prompts.Input(ctx, InputConfig{Message: field.Label, Default: current})
		if err != nil {
			return err
		}
		if value == "" {
			delete(s.values, field.ID)
			continue
		}
		s.values[field.ID] = value
	}
	s.b.SetValues(s.values)

	var buf bytes.Buffer
	if err := writeEvaluation(&buf, s.b, s.b.Evaluate(s.values)); err != nil {
		return err
	}
	return s.prompts.Info(ctx, strings.TrimRight(buf.String(), "\n"))
}

func (s *session) pickField(ctx context.Context, message string) (canvas.Field, bool, error) {
	list := s.b.Canvas().Fields()
	if len(list) == 0 {
		return canvas.Field{}, false, s.prompts.Info(ctx, "The form has no fields yet.")
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{
		Message:      message,
		Options:      fieldOptions(list),
		DefaultIndex: fieldIndex(list, s.b.Canvas().Selected()),
	})
	if err != nil {
		return canvas.Field{}, false, err
	}
	if idx < 0 || idx >= len(list) {
		return canvas.Field{}, false, nil
	}
	return list[idx], true, nil
}

func (s *session) pickRule(ctx context.Context) (string, bool, error) {
	list := s.b.Rules().Rules()
	if len(list) == 0 {
		return "", false, s.prompts.Info(ctx, "The form has no rules yet.")
	}
	options := make([]string, len(list))
	for i, rule := range list {
		line := fmt.Sprintf("%s: %s, %s", rule.Name, rules.Describe(rule, s.labelOf), rules.Summarize(rule, s.labelOf))
		if !rule.Enabled {
			line += " (disabled)"
		}
		options[i] = line
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{Message: "Rule", Options: options})
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(list) {
		return "", false, nil
	}
	return list[idx].ID, true, nil
}

func (s *session) inputFields() []canvas.Field {
	var out []canvas.Field
	for _, f := range s.b.Canvas().Fields() {
		if !fields.IsLayout(f.TypeID) {
			out = append(out, f)
		}
	}
	return out
}

func (s *session) labelOf(id string) (string, bool) {
	f, ok := s.b.Canvas().Field(id)
	if !ok {
		return "", false
	}
	return f.Label, true
}

func fieldOptions(list []canvas.Field) []string {
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = fmt.Sprintf("%d. %s [%s]", i+1, f.Label, f.TypeID)
	}
	return out
}

func fieldIndex(list []canvas.Field, id string) int {
	for i, f := range list {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
