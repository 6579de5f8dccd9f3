package rules

import "github.com/goliatone/go-formbuilder/pkg/canvas"

// FieldState is the effective runtime state of one field.
type FieldState struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
	// Skipped fields are hidden and excluded from validation.
	Skipped bool `json:"skipped"`
}

// Active reports whether the field takes part in validation.
func (s FieldState) Active() bool {
	return s.Visible && !s.Skipped
}

// FieldStates maps field ids to their resolved state.
type FieldStates map[string]FieldState

// Effect is the winning action per category for a single field.
type Effect struct {
	// Visibility is show, hide, skip or empty when no rule touched it.
	Visibility     ActionKind `json:"visibility,omitempty"`
	VisibilityRule string     `json:"visibilityRule,omitempty"`
	Required       bool       `json:"required,omitempty"`
	RequireRule    string     `json:"requireRule,omitempty"`
}

// Outcome collects effects by field id.
type Outcome map[string]Effect

// Reduce folds resolved actions into per-field effects. Actions are applied
// in order so the last rule wins for each target within a category.
func Reduce(actions []ResolvedAction) Outcome {
	out := Outcome{}
	for _, action := range actions {
		for _, target := range action.TargetFieldIDs {
			effect := out[target]
			switch action.Kind {
			case ActionShow, ActionHide, ActionSkip:
				effect.Visibility = action.Kind
				effect.VisibilityRule = action.RuleID
			case ActionRequire:
				effect.Required = true
				effect.RequireRule = action.RuleID
			default:
				continue
			}
			out[target] = effect
		}
	}
	return out
}

// Apply combines a field's own flags with its effect.
func (e Effect) Apply(visible, required bool) FieldState {
	state := FieldState{Visible: visible, Required: required}
	switch e.Visibility {
	case ActionShow:
		state.Visible = true
	case ActionHide:
		state.Visible = false
	case ActionSkip:
		state.Visible = false
		state.Skipped = true
	}
	if e.Required {
		state.Required = true
	}
	return state
}

// Resolve computes the runtime state of every field from the fired actions.
func Resolve(actions []ResolvedAction, fields []canvas.Field) FieldStates {
	outcome := Reduce(actions)
	states := make(FieldStates, len(fields))
	for _, field := range fields {
		states[field.ID] = outcome[field.ID].Apply(field.Visible, field.Required)
	}
	return states
}
