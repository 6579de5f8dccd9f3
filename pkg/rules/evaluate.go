package rules

// Evaluate returns the actions of every enabled, complete rule whose
// condition holds for values, in collection order. A trigger field missing
// from values never matches.
func (c *Collection) Evaluate(values Values) []ResolvedAction {
	var out []ResolvedAction
	for _, rule := range c.rules {
		if !rule.Enabled || !c.Complete(rule) {
			continue
		}
		value, ok := values[rule.Trigger.FieldID]
		if !ok {
			continue
		}
		if !Compare(rule.Trigger.Operator, value, rule.Trigger.Value) {
			continue
		}
		out = append(out, ResolvedAction{
			RuleID:         rule.ID,
			Kind:           rule.Action.Kind,
			TargetFieldIDs: append([]string(nil), rule.Action.TargetFieldIDs...),
		})
	}
	return out
}

// Matches reports which rule ids fired for values, preserving order.
func (c *Collection) Matches(values Values) []string {
	actions := c.Evaluate(values)
	ids := make([]string, len(actions))
	for i, action := range actions {
		ids[i] = action.RuleID
	}
	return ids
}
