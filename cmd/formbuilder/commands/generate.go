package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/codegen"
)

func newGenerateCmd(g *globals) *cobra.Command {
	var file, output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the scaffold script of a form definition",
		Long: `Generate renders the bash script that scaffolds the module's list, create,
edit and detail pages. The script is written to <module>-module.sh unless
-o is given; -o - prints it to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(file)
			if err != nil {
				return err
			}
			if err := def.Check(); err != nil {
				return fmt.Errorf("invalid definition: %w", err)
			}
			script, err := codegen.Generate(codegen.InputOf(def), codegen.WithVersion(g.cfg.Generator.Version))
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), script)
				return err
			}
			if output == "" {
				output = codegen.Filename(def.ModuleName)
			}
			if err := os.WriteFile(output, []byte(script), 0o755); err != nil {
				return fmt.Errorf("writing script: %w", err)
			}
			g.logger.Info("script written", "module", def.ModuleName, "path", output, "bytes", len(script))
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+output))
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Run it from the root of your Next.js project: bash "+output))
			return nil
		},
	}
	addDefinitionFlag(cmd, &file)
	cmd.Flags().StringVarP(&output, "output", "o", "", "script path, or - for stdout")
	return cmd
}
