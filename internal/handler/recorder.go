package handler

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/event"
)

// recordEvent records an event if a recorder is configured. Errors are logged
// but do not fail the request.
func recordEvent(ctx context.Context, r event.Recorder, logger *log.Logger, evt event.Event) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, evt); err != nil {
		logger.Warn("event recording failed", "type", evt.Type, "err", err)
	}
}
