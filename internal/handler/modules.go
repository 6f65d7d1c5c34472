package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/store"
)

// ModuleHandler serves saved form configs and drafts.
type ModuleHandler struct {
	configs  *store.Configs
	drafts   *store.Drafts
	recorder event.Recorder
	logger   *log.Logger
}

// NewModuleHandler creates a ModuleHandler. recorder may be nil.
func NewModuleHandler(configs *store.Configs, drafts *store.Drafts, recorder event.Recorder, logger *log.Logger) *ModuleHandler {
	return &ModuleHandler{
		configs:  configs,
		drafts:   drafts,
		recorder: recorder,
		logger:   logging.Or(logger).WithPrefix("modules"),
	}
}

// ListModules returns the modules with a saved config.
// GET /v1/modules
func (h *ModuleHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.configs.Modules(r.Context())
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": modules})
}

// GetConfig returns the saved config of a module.
// GET /v1/modules/{module}/config
func (h *ModuleHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := h.configs.Load(r.Context(), chi.URLParam(r, "module"))
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PutConfig saves the config of a module from a definition. The module in the
// path wins over the one in the body.
// PUT /v1/modules/{module}/config
func (h *ModuleHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var def field.Definition
	if !decodeOrReject(w, r, &def) {
		return
	}
	def.ModuleName = chi.URLParam(r, "module")

	snap := store.SnapshotOf(def)
	if err := h.configs.Save(r.Context(), def.ModuleName, snap); err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	recordEvent(r.Context(), h.recorder, h.logger, event.NewConfigSaved(def))
	writeJSON(w, http.StatusOK, snap)
}

// DeleteConfig removes the saved config of a module.
// DELETE /v1/modules/{module}/config
func (h *ModuleHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.configs.Delete(r.Context(), chi.URLParam(r, "module")); err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDrafts returns all drafts, newest first.
// GET /v1/drafts
func (h *ModuleHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.drafts.List(r.Context())
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	if limit := parseLimit(r, len(drafts), 500); limit < len(drafts) {
		drafts = drafts[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

// SaveDraft upserts a draft of the definition in the body.
// POST /v1/drafts
func (h *ModuleHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var def field.Definition
	if !decodeOrReject(w, r, &def) {
		return
	}
	created := def.ID == ""
	draft, err := h.drafts.Save(r.Context(), def)
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	recordEvent(r.Context(), h.recorder, h.logger, event.NewDraftSaved(draft.ID, draft.Module))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, draft)
}

// GetDraft returns one draft.
// GET /v1/drafts/{id}
func (h *ModuleHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// DeleteDraft removes one draft.
// DELETE /v1/drafts/{id}
func (h *ModuleHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.drafts.Delete(r.Context(), id); err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	recordEvent(r.Context(), h.recorder, h.logger, event.NewDraftDeleted(id))
	w.WriteHeader(http.StatusNoContent)
}
