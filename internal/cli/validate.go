package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	values := &valueFlags{}
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a submission against a form",
		Long: `Validate builds the submission schema for the form in its current rule
state and checks the supplied values against it. Hidden and skipped fields
are ignored; fields required by a rule must be present.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], values, cmd)
		},
	}
	values.register(cmd)
	return cmd
}

func runValidate(opts *RootOptions, path string, flags *valueFlags, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	b, values, err := openSession(opts, formatter, path, flags)
	if err != nil {
		return err
	}

	err = b.ValidateSubmission(values)
	if err == nil {
		return formatter.Success(ValidationResult{Valid: true}, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, "✓ submission valid")
			return err
		})
	}

	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "validate submission", err, nil)
	}
	result := ValidationResult{Fields: verr.Fields, Form: verr.Form}
	if formatter.Format == "json" {
		return fail(formatter, ExitFailure, ErrCodeValidation, "submission invalid", nil, result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ submission invalid")
	ids := make([]string, 0, len(verr.Fields))
	for id := range verr.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, msg := range verr.Fields[id] {
			fmt.Fprintf(w, "  %s: %s\n", id, msg)
		}
	}
	for _, msg := range verr.Form {
		fmt.Fprintf(w, "  form: %s\n", msg)
	}
	exitErr := NewExitError(ExitFailure, ErrCodeValidation+" submission invalid")
	exitErr.reported = true
	return exitErr
}
