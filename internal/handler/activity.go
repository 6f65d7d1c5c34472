package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/formbuilder/internal/activity"
	"github.com/matthewbaird/formbuilder/internal/logging"
)

// ActivityHandler serves the recorded builder history.
type ActivityHandler struct {
	store  activity.Store
	logger *log.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store, logger *log.Logger) *ActivityHandler {
	return &ActivityHandler{store: store, logger: logging.Or(logger).WithPrefix("activity")}
}

// HandleModuleActivity returns the history of one module, newest first.
// GET /v1/modules/{module}/activity
func (h *ActivityHandler) HandleModuleActivity(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	if module == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "module is required")
		return
	}

	opts := activity.DefaultQueryOptions()
	if s := r.URL.Query().Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := r.URL.Query().Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if types := r.URL.Query().Get("types"); types != "" {
		opts.Types = strings.Split(types, ",")
	}
	opts.Limit = parseLimit(r, opts.Limit, 500)
	opts.Cursor = r.URL.Query().Get("cursor")

	entries, nextCursor, totalCount, err := h.store.QueryByModule(r.Context(), module, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	writeJSON(w, http.StatusOK, struct {
		Activities []activity.Entry `json:"activities"`
		NextCursor string           `json:"next_cursor,omitempty"`
		TotalCount int              `json:"total_count"`
	}{entries, nextCursor, totalCount})
}

// HandleSearch matches activity summaries.
// GET /v1/activity/search?q=
func (h *ActivityHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "q parameter is required")
		return
	}

	opts := activity.DefaultSearchOptions()
	opts.Module = r.URL.Query().Get("module")
	if types := r.URL.Query().Get("types"); types != "" {
		opts.Types = strings.Split(types, ",")
	}
	opts.Limit = parseLimit(r, opts.Limit, 100)

	entries, totalCount, err := h.store.Search(r.Context(), q, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activities":  entries,
		"total_count": totalCount,
	})
}
