package commands

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

func newFieldTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "field-types",
		Short: "List the field types of the builder palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(mutedStyle).
				Headers("TYPE", "LABEL", "RULE").
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return titleStyle.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			for _, p := range field.Palette() {
				kind := "-"
				if k, ok := schema.KindOf(p.Type); ok {
					kind = string(k)
				}
				t.Row(string(p.Type), p.Icon+" "+p.Label, kind)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

func newNewFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-field <type>",
		Short: "Print a field of the given type with the builder defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := field.ParseType(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(field.NewDefault(ft))
		},
	}
}
