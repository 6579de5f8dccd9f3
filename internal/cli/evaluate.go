package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

type valueFlags struct {
	file string
	sets map[string]string
}

func (v *valueFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.file, "values", "", "JSON or YAML file with field values keyed by field id")
	cmd.Flags().StringToStringVar(&v.sets, "set", nil, "field value override (id=value), repeatable")
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	values := &valueFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate <document>",
		Short: "Run a form's rules against a set of values",
		Long: `Evaluate loads a form document, runs its enabled rules against the
supplied values and prints the matched actions together with the resulting
state of every field.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(rootOpts, args[0], values, cmd)
		},
	}
	values.register(cmd)
	return cmd
}

// openSession restores a document into a fresh builder and reads values.
func openSession(opts *RootOptions, f *OutputFormatter, path string, flags *valueFlags) (*formbuilder.Builder, rules.Values, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, nil, fail(f, ExitCommandError, ErrCodeDocument, "load document", err, nil)
	}
	b := formbuilder.New(formbuilder.WithLogger(opts.logger()))
	if err := b.Restore(doc); err != nil {
		return nil, nil, fail(f, ExitCommandError, ErrCodeDocument, "restore document", err, nil)
	}
	values, err := readValues(flags.file, flags.sets)
	if err != nil {
		return nil, nil, fail(f, ExitCommandError, ErrCodeValues, "read values", err, nil)
	}
	opts.logger().Debug("session opened", "document", path, "fields", b.Canvas().Len(), "rules", b.Rules().Len(), "values", len(values))
	return b, values, nil
}

func runEvaluate(opts *RootOptions, path string, flags *valueFlags, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	b, values, err := openSession(opts, formatter, path, flags)
	if err != nil {
		return err
	}

	eval := b.Evaluate(values)
	return formatter.Success(eval, func(w io.Writer) error {
		return writeEvaluation(w, b, eval)
	})
}

func writeEvaluation(w io.Writer, b *formbuilder.Builder, eval formbuilder.Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Actions")
	if len(eval.Actions) == 0 {
		fmt.Fprintln(tw, "  (none)")
	}
	for _, a := range eval.Actions {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.RuleID, a.Kind, strings.Join(a.TargetFieldIDs, ", "))
	}
	fmt.Fprintln(tw, "Fields")
	for _, field := range b.Canvas().Fields() {
		state := eval.States[field.ID]
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", field.ID, field.Label, describeState(state))
	}
	return tw.Flush()
}

func describeState(s rules.FieldState) string {
	var parts []string
	switch {
	case s.Skipped:
		parts = append(parts, "skipped")
	case s.Visible:
		parts = append(parts, "visible")
	default:
		parts = append(parts, "hidden")
	}
	if s.Required {
		parts = append(parts, "required")
	}
	return strings.Join(parts, ", ")
}
