package eventbus

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/logging"
)

// LogConsumer logs all events at debug level.
type LogConsumer struct {
	logger *log.Logger
}

func NewLogConsumer(logger *log.Logger) *LogConsumer {
	return &LogConsumer{logger: logging.Or(logger).WithPrefix("event")}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.Event) error {
	c.logger.Debug(evt.Summary, "type", evt.Type, "module", evt.Module, "id", evt.ID)
	return nil
}
