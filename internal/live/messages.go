package live

import (
	"encoding/json"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/preview"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// Client message types.
const (
	MsgSetDefinition  = "set_definition"
	MsgAddField       = "add_field"
	MsgUpdateField    = "update_field"
	MsgMoveField      = "move_field"
	MsgRemoveField    = "remove_field"
	MsgDuplicateField = "duplicate_field"
	MsgSetValue       = "set_value"
	MsgToggleOption   = "toggle_option"
	MsgSubmit         = "submit"
	MsgPing           = "ping"
)

// Server message types.
const (
	MsgSession   = "session"
	MsgView      = "view"
	MsgSubmitted = "submitted"
	MsgError     = "error"
	MsgPong      = "pong"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"` // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// AddFieldData is the payload for "add_field". A full field wins over a type.
type AddFieldData struct {
	Type  field.Type   `json:"type,omitempty"`
	Field *field.Field `json:"field,omitempty"`
}

// UpdateFieldData is the payload for "update_field".
type UpdateFieldData struct {
	Field field.Field `json:"field"`
}

// MoveFieldData is the payload for "move_field".
type MoveFieldData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FieldRefData is the payload for "remove_field" and "duplicate_field".
type FieldRefData struct {
	ID string `json:"id"`
}

// SetValueData is the payload for "set_value". A null value clears the field.
type SetValueData struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ToggleOptionData is the payload for "toggle_option".
type ToggleOptionData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	On    bool   `json:"on"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
}

// ViewData is everything derived from the session after a change.
type ViewData struct {
	Definition field.Definition `json:"definition"`
	Config     field.Config     `json:"config"`
	Schema     *schema.Schema   `json:"schema"`
	Preview    preview.View     `json:"preview"`
	List       preview.ListView `json:"list"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
