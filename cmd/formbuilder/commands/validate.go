package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// errInvalidInput makes the command exit non-zero after the report is printed.
var errInvalidInput = errors.New("input does not match the form schema")

func newValidateCmd(g *globals) *cobra.Command {
	var file, input, engine string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check submitted values against a form definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(file)
			if err != nil {
				return err
			}
			values, err := loadValues(input)
			if err != nil {
				return err
			}
			s := schema.Synthesize(def.Fields)
			out := cmd.OutOrStdout()

			switch engine {
			case "cue":
				if err := s.ValidateCUE(values); err != nil {
					fmt.Fprintln(out, errorStyle.Render("✗ "+err.Error()))
					return errInvalidInput
				}
			case "builtin":
				if errs := s.Validate(values); errs != nil {
					for _, name := range errs.Fields() {
						fe, _ := errs.Get(name)
						fmt.Fprintf(out, "%s %s %s\n", errorStyle.Render("✗"), name, mutedStyle.Render(fe.Message))
					}
					g.logger.Debug("validation failed", "fields", errs.Len())
					return errInvalidInput
				}
			default:
				return fmt.Errorf("unknown engine %q (want builtin or cue)", engine)
			}
			fmt.Fprintln(out, successStyle.Render("✓ valid"))
			return nil
		},
	}
	addDefinitionFlag(cmd, &file)
	cmd.Flags().StringVar(&input, "input", "", "values to check (.json or .yaml)")
	cmd.Flags().StringVar(&engine, "engine", "builtin", "validator: builtin or cue")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func loadValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	values := map[string]any{}
	if field.FormatOf(path) == field.FormatYAML {
		err = yaml.Unmarshal(data, &values)
	} else {
		err = json.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding values %s: %w", path, err)
	}
	return values, nil
}
