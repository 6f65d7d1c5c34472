package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/codegen"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	var file, format string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the validation schema of a form definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(file)
			if err != nil {
				return err
			}
			s := schema.Synthesize(def.Fields)
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s.JSONSchema())
			case "rules":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s.Rules)
			case "cue":
				text, err := s.CUE()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, text)
				return err
			case "zod":
				src, err := codegen.ZodSchema(def.Fields)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, src)
				return err
			}
			return fmt.Errorf("unknown schema format %q (want json, rules, cue or zod)", format)
		},
	}
	addDefinitionFlag(cmd, &file)
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, rules, cue or zod")
	return cmd
}
