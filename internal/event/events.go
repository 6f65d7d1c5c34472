package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/formbuilder/internal/field"
)

// Event types.
const (
	DefinitionChanged = "definition.changed"
	DraftSaved        = "draft.saved"
	DraftDeleted      = "draft.deleted"
	ConfigSaved       = "config.saved"
	FormSubmitted     = "form.submitted"
	ScriptGenerated   = "script.generated"
)

// Event carries the canonical shape of every builder event.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Module     string            `json:"module"`
	OccurredAt time.Time         `json:"occurredAt"`
	Summary    string            `json:"summary"`
	Definition *field.Definition `json:"-"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func newEvent(typ string, def field.Definition, summary string) Event {
	def = def.Clone()
	return Event{
		ID:         newID(),
		Type:       typ,
		Module:     def.ModuleName,
		OccurredAt: time.Now(),
		Summary:    summary,
		Definition: &def,
	}
}

// ChangePayload describes a single edit to a definition.
type ChangePayload struct {
	Op      string `json:"op"`
	FieldID string `json:"fieldId,omitempty"`
	Fields  int    `json:"fields"`
}

// NewDefinitionChanged is raised after every edit in a builder session.
func NewDefinitionChanged(def field.Definition, op, fieldID string) Event {
	evt := newEvent(DefinitionChanged, def, fmt.Sprintf("%s on %s (%d fields)", op, moduleLabel(def), len(def.Fields)))
	evt.Payload = mustJSON(ChangePayload{Op: op, FieldID: fieldID, Fields: len(def.Fields)})
	return evt
}

// DraftPayload identifies a draft.
type DraftPayload struct {
	DraftID string `json:"draftId"`
}

// NewDraftSaved is raised when a draft is stored.
func NewDraftSaved(draftID string, def field.Definition) Event {
	evt := newEvent(DraftSaved, def, fmt.Sprintf("Draft %s saved for %s", shortID(draftID), moduleLabel(def)))
	evt.Payload = mustJSON(DraftPayload{DraftID: draftID})
	return evt
}

// NewDraftDeleted is raised when a draft is removed.
func NewDraftDeleted(draftID string) Event {
	return Event{
		ID:         newID(),
		Type:       DraftDeleted,
		OccurredAt: time.Now(),
		Summary:    fmt.Sprintf("Draft %s deleted", shortID(draftID)),
		Payload:    mustJSON(DraftPayload{DraftID: draftID}),
	}
}

// NewConfigSaved is raised when a form config is written explicitly.
func NewConfigSaved(def field.Definition) Event {
	return newEvent(ConfigSaved, def, fmt.Sprintf("Form config saved for %s", moduleLabel(def)))
}

// SubmittedPayload carries the validated values of a preview submission.
type SubmittedPayload struct {
	Values map[string]any `json:"values"`
}

// NewFormSubmitted is raised when a preview submission passes validation.
func NewFormSubmitted(module string, values map[string]any) Event {
	return Event{
		ID:         newID(),
		Type:       FormSubmitted,
		Module:     module,
		OccurredAt: time.Now(),
		Summary:    fmt.Sprintf("Preview of %s submitted with %d values", module, len(values)),
		Payload:    mustJSON(SubmittedPayload{Values: values}),
	}
}

// GeneratedPayload describes a generated script.
type GeneratedPayload struct {
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

// NewScriptGenerated is raised after a scaffold script is produced.
func NewScriptGenerated(def field.Definition, filename string, size int) Event {
	evt := newEvent(ScriptGenerated, def, fmt.Sprintf("Generated %s", filename))
	evt.Payload = mustJSON(GeneratedPayload{Filename: filename, Bytes: size})
	return evt
}

func moduleLabel(def field.Definition) string {
	if def.ModuleName == "" {
		return "unnamed module"
	}
	return def.ModuleName
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
