package eventbus

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/store"
)

// AutosaveConsumer writes the form config snapshot whenever a definition
// changes. Persistence failures are logged as warnings and never returned.
type AutosaveConsumer struct {
	configs *store.Configs
	logger  *log.Logger
}

// NewAutosaveConsumer creates an AutosaveConsumer writing through configs.
func NewAutosaveConsumer(configs *store.Configs, logger *log.Logger) *AutosaveConsumer {
	return &AutosaveConsumer{configs: configs, logger: logging.Or(logger).WithPrefix("autosave")}
}

func (c *AutosaveConsumer) HandleEvent(ctx context.Context, evt event.Event) error {
	if evt.Type != event.DefinitionChanged || evt.Definition == nil || evt.Module == "" {
		return nil
	}
	if err := c.configs.Save(ctx, evt.Module, store.SnapshotOf(*evt.Definition)); err != nil {
		c.logger.Warn("saving form config failed", "module", evt.Module, "err", err)
	}
	return nil
}
