package rules

// Operator compares the trigger field's current value with the rule value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
)

// Operators lists the supported operators in display order.
var Operators = []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains}

// ActionKind is the effect a rule has on its target fields.
type ActionKind string

const (
	ActionShow    ActionKind = "show"
	ActionHide    ActionKind = "hide"
	ActionRequire ActionKind = "require"
	ActionSkip    ActionKind = "skip"
)

// ActionKinds lists the supported actions in display order.
var ActionKinds = []ActionKind{ActionShow, ActionHide, ActionRequire, ActionSkip}

// Trigger is the condition half of a rule.
type Trigger struct {
	FieldID  string   `json:"fieldId" yaml:"fieldId" validate:"required"`
	Operator Operator `json:"operator" yaml:"operator" validate:"required,oneof=equals not_equals greater_than less_than contains"`
	Value    string   `json:"value" yaml:"value" validate:"required"`
}

// Action is the effect half of a rule.
type Action struct {
	Kind           ActionKind `json:"type" yaml:"type" validate:"required,oneof=show hide require skip"`
	TargetFieldIDs []string   `json:"targetFieldIds" yaml:"targetFieldIds" validate:"min=1,dive,required"`
}

// Rule pairs one trigger with one action. A rule is complete when its
// trigger field exists and it targets at least one field, all of which exist.
// Incomplete rules are kept but never evaluated.
type Rule struct {
	ID      string  `json:"id" yaml:"id" validate:"required"`
	Name    string  `json:"name" yaml:"name"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Trigger Trigger `json:"trigger" yaml:"trigger"`
	Action  Action  `json:"action" yaml:"action"`
}

// Clone returns a deep copy of r.
func (r Rule) Clone() Rule {
	if r.Action.TargetFieldIDs != nil {
		r.Action.TargetFieldIDs = append([]string(nil), r.Action.TargetFieldIDs...)
	}
	return r
}

// Targets reports whether r acts on fieldID.
func (r Rule) Targets(fieldID string) bool {
	for _, id := range r.Action.TargetFieldIDs {
		if id == fieldID {
			return true
		}
	}
	return false
}

// Values is a snapshot of current field values keyed by field id.
type Values map[string]any

// FieldSet resolves field references. The canvas satisfies it.
type FieldSet interface {
	Has(id string) bool
}

// ResolvedAction is an action emitted by a rule whose condition held.
type ResolvedAction struct {
	RuleID         string     `json:"ruleId"`
	Kind           ActionKind `json:"type"`
	TargetFieldIDs []string   `json:"targetFieldIds"`
}
