package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/preview"
)

func newPreviewCmd(g *globals) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Fill in a form definition in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(file)
			if err != nil {
				return err
			}
			state := preview.NewState()
			form, apply, err := preview.TerminalForm(def.Fields, state)
			if err != nil {
				return err
			}
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Preview cancelled"))
					return nil
				}
				return err
			}
			if err := apply(); err != nil {
				return err
			}

			outcome := preview.Submit(cmd.Context(), def.Fields, state, nil)
			out := cmd.OutOrStdout()
			if !outcome.OK {
				fmt.Fprintln(out, errorStyle.Render(outcome.Notification.Title))
				fmt.Fprintln(out, mutedStyle.Render(outcome.Notification.Message))
				return errInvalidInput
			}
			g.logger.Debug("preview submitted", "module", def.ModuleName, "values", len(outcome.Values))
			fmt.Fprintln(out, successStyle.Render(outcome.Notification.Title))
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(outcome.Values)
		},
	}
	addDefinitionFlag(cmd, &file)
	return cmd
}
