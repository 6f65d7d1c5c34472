// Package commands implements the formbuilder command line.
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/config"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/logging"
)

// globals is shared by every subcommand after the root pre-run.
type globals struct {
	configFile string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "formbuilder",
		Short:         "Design form modules and generate their scaffold script",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(g),
		newGenerateCmd(g),
		newSchemaCmd(),
		newValidateCmd(g),
		newPreviewCmd(g),
		newFieldTypesCmd(),
		newNewFieldCmd(),
	)
	return cmd
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Error: "+err.Error()))
	}
	return err
}

func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	logging.Set(logger)
	g.cfg, g.logger = cfg, logger
	return nil
}

// addDefinitionFlag registers the required -f flag.
func addDefinitionFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "file", "f", "", "form definition (.json, .yaml or .cue)")
	_ = cmd.MarkFlagRequired("file")
}

func loadDefinition(path string) (field.Definition, error) {
	def, err := field.LoadFile(path)
	if err != nil {
		return field.Definition{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return def, nil
}
