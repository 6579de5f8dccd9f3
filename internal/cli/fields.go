package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/fields"
)

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "fields",
		Short:         "List the field catalog grouped by category",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, cmd)
		},
	}
}

type fieldGroup struct {
	Category fields.Category     `json:"category"`
	Fields   []fields.Descriptor `json:"fields"`
}

func runFields(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	groups := fields.Default().Grouped()

	data := make([]fieldGroup, 0, len(groups))
	for _, g := range groups {
		data = append(data, fieldGroup{Category: g.Category, Fields: g.Descriptors})
	}

	return formatter.Success(data, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, g := range data {
			fmt.Fprintf(tw, "%s\n", g.Category)
			for _, d := range g.Fields {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.ID, d.DisplayName, d.Description)
			}
		}
		return tw.Flush()
	})
}
