package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/codegen"
	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/preview"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// BuilderHandler serves the stateless derivations of a field list: schema,
// validation, layout, preview and the generated script.
type BuilderHandler struct {
	version  string
	recorder event.Recorder
	logger   *log.Logger
}

// NewBuilderHandler creates a BuilderHandler. recorder may be nil.
func NewBuilderHandler(version string, recorder event.Recorder, logger *log.Logger) *BuilderHandler {
	return &BuilderHandler{version: version, recorder: recorder, logger: logging.Or(logger).WithPrefix("builder")}
}

type fieldsRequest struct {
	ModuleName string           `json:"moduleName,omitempty"`
	Title      string           `json:"title,omitempty"`
	Fields     []field.Field    `json:"fields"`
	ListFields []string         `json:"listFields,omitempty"`
	Input      map[string]any   `json:"input,omitempty"`
	Records    []map[string]any `json:"records,omitempty"`
	Submit     bool             `json:"submit,omitempty"`
	Engine     string           `json:"engine,omitempty"`
}

func (req fieldsRequest) definition() field.Definition {
	return field.Definition{
		ModuleName: req.ModuleName,
		Title:      req.Title,
		Fields:     req.Fields,
		ListFields: req.ListFields,
	}
}

// ListFieldTypes returns the palette.
// GET /v1/field-types
func (h *BuilderHandler) ListFieldTypes(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		field.TypeInfo
		Kind string `json:"kind,omitempty"`
	}
	palette := field.Palette()
	out := make([]entry, len(palette))
	for i, p := range palette {
		out[i].TypeInfo = p
		if k, ok := schema.KindOf(p.Type); ok {
			out[i].Kind = string(k)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// DefaultField returns a new field of the requested type with builder defaults.
// POST /v1/fields/default
func (h *BuilderHandler) DefaultField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	t, err := field.ParseType(req.Type)
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, field.NewDefault(t))
}

// Schema returns the synthesized rules and their exports.
// POST /v1/schema
func (h *BuilderHandler) Schema(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	s := schema.Synthesize(req.Fields)
	cueText, err := s.CUE()
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rules":      s.Rules,
		"jsonSchema": s.JSONSchema(),
		"cue":        cueText,
		"zod":        s.Zod(),
	})
}

// Validate checks input against the schema of the fields. Invalid input is
// answered with 422 and the per-field errors.
// POST /v1/validate
func (h *BuilderHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	s := schema.Synthesize(req.Fields)

	if req.Engine == "cue" {
		if err := s.ValidateCUE(req.Input); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if errs := s.Validate(req.Input); errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "errors": errs})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Layout returns sections, grid rows and list columns of the fields.
// POST /v1/layout
func (h *BuilderHandler) Layout(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	rows := layout.Rows(req.Fields)
	names := make([][]string, len(rows))
	for i, row := range rows {
		for _, f := range row {
			names[i] = append(names[i], f.Name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections":      layout.Partition(req.Fields),
		"rows":          names,
		"displayFields": layout.DisplayFields(req.Fields, req.ListFields),
	})
}

// Preview renders the form with the given input and, when asked, submits it.
// POST /v1/preview
func (h *BuilderHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	state := preview.NewState()
	for k, v := range req.Input {
		state.Set(k, v)
	}

	resp := map[string]any{}
	if req.Submit {
		def := req.definition()
		out := preview.Submit(r.Context(), req.Fields, state, preview.SubmitterFunc(func(ctx context.Context, values map[string]any) error {
			recordEvent(ctx, h.recorder, h.logger, event.NewFormSubmitted(def.ModuleName, values))
			return nil
		}))
		resp["outcome"] = out
	}
	resp["view"] = preview.Render(req.Fields, state)
	resp["list"] = preview.ListPreview(req.definition(), req.Records)
	writeJSON(w, http.StatusOK, resp)
}

// Generate returns the scaffold script of a definition as a download.
// POST /v1/generate
func (h *BuilderHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var def field.Definition
	if !decodeOrReject(w, r, &def) {
		return
	}
	if err := def.Check(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DEFINITION", err.Error())
		return
	}
	script, err := codegen.Generate(codegen.InputOf(def), codegen.WithVersion(h.version))
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}

	name := codegen.Filename(def.ModuleName)
	recordEvent(r.Context(), h.recorder, h.logger, event.NewScriptGenerated(def, name, len(script)))

	w.Header().Set("Content-Type", "text/x-shellscript; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(script)); err != nil {
		h.logger.Warn("writing script failed", "module", def.ModuleName, "err", err)
	}
}
