package formbuilder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/internal/ident"
	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/rules"
	"github.com/goliatone/go-formbuilder/pkg/schema"
)

type recordingPublisher struct {
	frames []preview.Frame
}

func (p *recordingPublisher) Publish(frame preview.Frame) error {
	p.frames = append(p.frames, frame)
	return nil
}

func newFeedbackBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	opts = append([]Option{
		WithFieldIDs(ident.NewFixed("rating", "improvements")),
		WithRuleIDs(ident.Sequence("rule_")),
		WithTitle("Feedback"),
	}, opts...)
	b := New(opts...)

	rating, _ := b.Registry().Lookup(fields.TypeRating)
	textarea, _ := b.Registry().Lookup(fields.TypeTextarea)
	b.Canvas().Append(rating)
	b.Canvas().Append(textarea)
	b.Canvas().ToggleVisible("improvements")

	ed := b.Rules().NewEditor()
	ed.SetTriggerField("rating")
	ed.SetOperator(rules.OpLessThan)
	ed.SetValue("3")
	ed.SetAction(rules.ActionShow)
	ed.AddTarget("improvements")
	if _, err := ed.Save(); err != nil {
		t.Fatalf("save rule: %v", err)
	}

	ed = b.Rules().NewEditor()
	ed.SetTriggerField("rating")
	ed.SetOperator(rules.OpLessThan)
	ed.SetValue("3")
	ed.SetAction(rules.ActionRequire)
	ed.AddTarget("improvements")
	if _, err := ed.Save(); err != nil {
		t.Fatalf("save rule: %v", err)
	}
	return b
}

func TestBuilder_EvaluateAndValidate(t *testing.T) {
	t.Parallel()

	b := newFeedbackBuilder(t)

	eval := b.Evaluate(rules.Values{"rating": 2})
	want := rules.FieldStates{
		"rating":       {Visible: true},
		"improvements": {Visible: true, Required: true},
	}
	if diff := cmp.Diff(want, eval.States); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}

	err := b.ValidateSubmission(rules.Values{"rating": 2})
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["improvements"]; !ok {
		t.Fatalf("expected improvements to be required, got %+v", verr.Fields)
	}

	if err := b.ValidateSubmission(rules.Values{"rating": 5}); err != nil {
		t.Fatalf("high rating should not need improvements: %v", err)
	}
	if err := b.ValidateSubmission(rules.Values{"rating": 2, "improvements": "Faster"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBuilder_RemovingTargetMakesRuleIncomplete(t *testing.T) {
	t.Parallel()

	b := newFeedbackBuilder(t)
	b.Canvas().Remove("improvements")

	if got := b.Evaluate(rules.Values{"rating": 1}); len(got.Actions) != 0 {
		t.Fatalf("incomplete rules must be skipped, got %+v", got.Actions)
	}
	if b.Rules().Len() != 2 {
		t.Fatalf("incomplete rules must be retained")
	}
}

func TestBuilder_DocumentRoundTrip(t *testing.T) {
	t.Parallel()

	b := newFeedbackBuilder(t)
	doc := b.Document()
	if doc.Title != "Feedback" || len(doc.Fields) != 2 || len(doc.Rules) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}

	other := New()
	if err := other.Restore(doc); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if diff := cmp.Diff(doc, other.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_PublishesFrames(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	b := newFeedbackBuilder(t, WithPublisher(pub))
	before := len(pub.frames)
	if before == 0 {
		t.Fatalf("expected frames while building")
	}

	b.SetValues(rules.Values{"rating": 1})
	last := pub.frames[len(pub.frames)-1]
	if len(last.Actions) != 2 || !last.States["improvements"].Visible {
		t.Fatalf("frame does not reflect values: %+v", last)
	}

	b.Canvas().Select("rating")
	last = pub.frames[len(pub.frames)-1]
	if last.Selected != "rating" || last.Title != "Feedback" {
		t.Fatalf("unexpected frame %+v", last)
	}
	if diff := cmp.Diff([]string{"rating", "improvements"}, fieldIDs(last.Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func fieldIDs(list []canvas.Field) []string {
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.ID
	}
	return out
}

func TestReportTemplates(t *testing.T) {
	t.Parallel()

	if _, err := ReportTemplates().Open("report.html.tpl"); err != nil {
		t.Fatalf("open report template: %v", err)
	}
}
