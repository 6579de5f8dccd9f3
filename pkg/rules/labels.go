package rules

import "strings"

var operatorLabels = map[Operator]string{
	OpEquals:      "equals",
	OpNotEquals:   "does not equal",
	OpGreaterThan: "is greater than",
	OpLessThan:    "is less than",
	OpContains:    "contains",
}

var actionLabels = map[ActionKind]string{
	ActionShow:    "Show",
	ActionHide:    "Hide",
	ActionRequire: "Make required",
	ActionSkip:    "Skip",
}

// OperatorLabel returns the human readable phrase for op.
func OperatorLabel(op Operator) string {
	if label, ok := operatorLabels[op]; ok {
		return label
	}
	return string(op)
}

// ActionLabel returns the human readable name for kind.
func ActionLabel(kind ActionKind) string {
	if label, ok := actionLabels[kind]; ok {
		return label
	}
	return string(kind)
}

// Describe summarises the rule's condition in one sentence. name maps field
// ids to labels; ids it cannot resolve make the rule read as incomplete.
func Describe(rule Rule, name func(id string) (string, bool)) string {
	const incomplete = "Rule configuration incomplete"
	if name == nil {
		name = identityName
	}
	trigger, ok := name(rule.Trigger.FieldID)
	if !ok || trigger == "" {
		return incomplete
	}
	if len(targetNames(rule, name)) == 0 {
		return incomplete
	}
	return "When " + trigger + " " + OperatorLabel(rule.Trigger.Operator) + " " + rule.Trigger.Value
}

// Summarize renders the action half, e.g. "Show Email, Phone".
func Summarize(rule Rule, name func(id string) (string, bool)) string {
	if name == nil {
		name = identityName
	}
	label := ActionLabel(rule.Action.Kind)
	targets := targetNames(rule, name)
	if len(targets) == 0 {
		return label
	}
	return label + " " + strings.Join(targets, ", ")
}

func targetNames(rule Rule, name func(id string) (string, bool)) []string {
	out := make([]string, 0, len(rule.Action.TargetFieldIDs))
	for _, id := range rule.Action.TargetFieldIDs {
		if label, ok := name(id); ok && label != "" {
			out = append(out, label)
		}
	}
	return out
}

func identityName(id string) (string, bool) { return id, id != "" }
