// Package rules models conditional logic between form fields. A Collection
// holds independent trigger/action rules; Evaluate turns current values into
// ordered actions and Resolve folds them into per-field state, with the last
// matching rule winning for each target.
package rules
