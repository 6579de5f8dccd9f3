package rules

import (
	"strings"

	"github.com/goliatone/go-formbuilder/internal/ident"
)

// DefaultRuleName names freshly created drafts.
const DefaultRuleName = "New Rule"

// Observer is notified with a copy of the rule list after every committed
// mutation.
type Observer func([]Rule)

// Option configures a Collection.
type Option func(*Collection)

// WithFields sets the field set rules are resolved against. Without one, a
// rule is complete as soon as it names a trigger field and a target.
func WithFields(fields FieldSet) Option {
	return func(c *Collection) {
		c.fields = fields
	}
}

// WithIDGenerator overrides the rule id generator.
func WithIDGenerator(gen ident.Generator) Option {
	return func(c *Collection) {
		if gen != nil {
			c.ids = gen
		}
	}
}

// Collection owns an ordered list of independent rules. It has a single
// writer: methods must not be called concurrently.
type Collection struct {
	rules     []Rule
	fields    FieldSet
	ids       ident.Generator
	observers []observerEntry
	nextObs   int
}

type observerEntry struct {
	id int
	fn Observer
}

// New returns an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{ids: ident.NewSqids("rule_")}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CreateDraft returns a new, incomplete rule that is not yet part of the
// collection.
func (c *Collection) CreateDraft() Rule {
	return Rule{
		ID:      c.ids.Next(),
		Name:    DefaultRuleName,
		Enabled: true,
		Trigger: Trigger{Operator: OpEquals},
		Action:  Action{Kind: ActionShow, TargetFieldIDs: []string{}},
	}
}

// Commit replaces the rule with the same id in place, or appends rule when
// the id is new.
func (c *Collection) Commit(rule Rule) {
	rule = rule.Clone()
	if idx := c.indexOf(rule.ID); idx >= 0 {
		c.rules[idx] = rule
	} else {
		c.rules = append(c.rules, rule)
	}
	c.notify()
}

// Delete removes the rule with id. Unknown ids are ignored.
func (c *Collection) Delete(id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.rules = append(c.rules[:idx], c.rules[idx+1:]...)
	c.notify()
}

// ToggleEnabled flips the enabled flag of the rule with id.
func (c *Collection) ToggleEnabled(id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.rules[idx].Enabled = !c.rules[idx].Enabled
	c.notify()
}

// Load replaces the rule list, e.g. when restoring a saved form.
func (c *Collection) Load(list []Rule) {
	c.rules = make([]Rule, 0, len(list))
	for _, rule := range list {
		c.rules = append(c.rules, rule.Clone())
	}
	c.notify()
}

// Rules returns a copy of the rule list in collection order.
func (c *Collection) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, rule := range c.rules {
		out[i] = rule.Clone()
	}
	return out
}

// Rule returns a copy of the rule with id.
func (c *Collection) Rule(id string) (Rule, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return Rule{}, false
	}
	return c.rules[idx].Clone(), true
}

// Len returns the number of rules.
func (c *Collection) Len() int {
	return len(c.rules)
}

// Complete reports whether rule can be evaluated against the current fields.
func (c *Collection) Complete(rule Rule) bool {
	trigger := strings.TrimSpace(rule.Trigger.FieldID)
	if trigger == "" || len(rule.Action.TargetFieldIDs) == 0 {
		return false
	}
	if c.fields == nil {
		for _, id := range rule.Action.TargetFieldIDs {
			if strings.TrimSpace(id) == "" {
				return false
			}
		}
		return true
	}
	if !c.fields.Has(trigger) {
		return false
	}
	for _, id := range rule.Action.TargetFieldIDs {
		if !c.fields.Has(id) {
			return false
		}
	}
	return true
}

// Subscribe registers fn to run after every committed mutation and returns a
// function that removes it.
func (c *Collection) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	return func() {
		for i, entry := range c.observers {
			if entry.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Collection) notify() {
	if len(c.observers) == 0 {
		return
	}
	observers := append([]observerEntry(nil), c.observers...)
	for _, entry := range observers {
		entry.fn(c.Rules())
	}
}

func (c *Collection) indexOf(id string) int {
	for i := range c.rules {
		if c.rules[i].ID == id {
			return i
		}
	}
	return -1
}
