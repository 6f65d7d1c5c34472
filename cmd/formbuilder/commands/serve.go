package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/formbuilder/internal/activity"
	"github.com/matthewbaird/formbuilder/internal/config"
	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/eventbus"
	"github.com/matthewbaird/formbuilder/internal/live"
	"github.com/matthewbaird/formbuilder/internal/server"
	"github.com/matthewbaird/formbuilder/internal/store"
)

const (
	eventBufferSize = 256
	sessionSweep    = time.Minute
)

func newServeCmd(g *globals) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live builder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				g.cfg.Server.Port = port
			}
			return serve(cmd.Context(), g.cfg, g.logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer kv.Close()
	logger.Info("store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	configs := store.NewConfigs(kv)
	acts := activity.NewKVStore(kv)

	bus := eventbus.New(eventBufferSize, logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("autosave", eventbus.NewAutosaveConsumer(configs, logger))
	bus.Start(ctx)
	defer bus.Stop()

	recorder := event.NewActivityRecorder(acts)
	recorder.SetPublisher(bus)

	sessions := live.NewManager(cfg.Live.MaxAge, cfg.Live.IdleTimeout)
	go sessions.Run(ctx, sessionSweep)

	return server.Run(ctx, server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Version:         cfg.Generator.Version,
		Configs:         configs,
		Drafts:          store.NewDrafts(kv),
		Activity:        acts,
		Recorder:        recorder,
		Sessions:        sessions,
		Logger:          logger,
	})
}
