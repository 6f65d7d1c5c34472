package live

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/formbuilder/internal/activity"
	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/preview"
)

func msg(t *testing.T, typ string, data any) ClientMessage {
	t.Helper()
	m := ClientMessage{Type: typ, ID: typ + "-1"}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		m.Data = raw
	}
	return m
}

func newTestHandler() (*Handler, *activity.MemoryStore) {
	acts := activity.NewMemoryStore()
	h := NewHandler(NewManager(time.Hour, time.Hour), event.NewActivityRecorder(acts), log.New(&bytes.Buffer{}))
	return h, acts
}

func startDefinition() field.Definition {
	email := field.NewDefaultWithID(field.Email, "f-email")
	email.Name, email.Label = "email", "Email"
	age := field.NewDefaultWithID(field.Number, "f-age")
	age.Name, age.Label, age.Required = "age", "Age", false
	age.Attrs = field.NumericAttrs{Min: field.Float(0), Max: field.Float(120)}
	tags := field.NewDefaultWithID(field.CheckboxGroup, "f-tags")
	tags.Name, tags.Label, tags.Required = "tags", "Tags", false
	return field.Definition{ModuleName: "users", Fields: []field.Field{email, age, tags}}
}

func viewOf(t *testing.T, out []ServerMessage) ViewData {
	t.Helper()
	require.NotEmpty(t, out)
	last := out[len(out)-1]
	require.Equal(t, MsgView, last.Type, "reply: %+v", last)
	vd, ok := last.Data.(ViewData)
	require.True(t, ok)
	return vd
}

func names(def field.Definition) []string {
	out := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		out[i] = f.Name
	}
	return out
}

func TestHandle_EditLifecycle(t *testing.T) {
	ctx := context.Background()
	h, acts := newTestHandler()
	sess := h.sessions.Create(field.Definition{})

	vd := viewOf(t, h.Handle(ctx, sess, msg(t, MsgSetDefinition, startDefinition())))
	assert.Equal(t, []string{"email", "age", "tags"}, names(vd.Definition))
	assert.Equal(t, []string{"email", "age", "tags"}, vd.Schema.Names())
	assert.Empty(t, vd.Warnings)

	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgAddField, AddFieldData{Type: field.Text})))
	require.Len(t, vd.Definition.Fields, 4)
	added := vd.Definition.Fields[3]
	assert.Equal(t, field.Text, added.Type)
	assert.True(t, strings.HasPrefix(added.Name, "text_"))

	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgMoveField, MoveFieldData{From: added.ID, To: "f-email"})))
	assert.Equal(t, added.Name, vd.Definition.Fields[0].Name)

	renamed := added
	renamed.Name, renamed.Label = "nickname", "Nickname"
	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgUpdateField, UpdateFieldData{Field: renamed})))
	assert.Equal(t, []string{"nickname", "email", "age", "tags"}, names(vd.Definition))

	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgDuplicateField, FieldRefData{ID: "f-email"})))
	assert.Equal(t, []string{"nickname", "email", "age", "tags", "email_copy"}, names(vd.Definition))

	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgRemoveField, FieldRefData{ID: added.ID})))
	assert.Equal(t, []string{"email", "age", "tags", "email_copy"}, names(vd.Definition))

	entries, _, total, err := acts.QueryByModule(ctx, "users", activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	for _, e := range entries {
		assert.Equal(t, event.DefinitionChanged, e.EventType)
	}
}

func TestHandle_Errors(t *testing.T) {
	ctx := context.Background()
	h, acts := newTestHandler()
	sess := h.sessions.Create(startDefinition())

	tests := []struct {
		name string
		msg  ClientMessage
		code string
	}{
		{"unknown type", ClientMessage{Type: "explode", ID: "x"}, "unknown_type"},
		{"missing data", ClientMessage{Type: MsgRemoveField, ID: "x"}, "invalid_data"},
		{"bad field type", msg(t, MsgAddField, AddFieldData{Type: "color-wheel"}), "invalid_data"},
		{"missing field", msg(t, MsgRemoveField, FieldRefData{ID: "nope"}), "not_found"},
		{"toggle unknown field", msg(t, MsgToggleOption, ToggleOptionData{Name: "nope", Value: "a", On: true}), "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.Handle(ctx, sess, tt.msg)
			require.Len(t, out, 1)
			assert.Equal(t, MsgError, out[0].Type)
			assert.Equal(t, tt.msg.ID, out[0].RequestID)
			data, ok := out[0].Data.(ErrorData)
			require.True(t, ok)
			assert.Equal(t, tt.code, data.Code, data.Message)
		})
	}

	// Failed edits leave the definition alone and record nothing.
	assert.Equal(t, []string{"email", "age", "tags"}, names(sess.Definition()))
	_, _, total, _ := acts.QueryByModule(ctx, "users", activity.DefaultQueryOptions())
	assert.Equal(t, 0, total)
}

func TestHandle_PreviewAndSubmit(t *testing.T) {
	ctx := context.Background()
	h, acts := newTestHandler()
	sess := h.sessions.Create(startDefinition())

	out := h.Handle(ctx, sess, msg(t, MsgSubmit, nil))
	require.Len(t, out, 2)
	assert.Equal(t, MsgSubmitted, out[0].Type)
	outcome := out[0].Data.(preview.Outcome)
	assert.False(t, outcome.OK)
	assert.Equal(t, []string{"email"}, outcome.Errors.Fields())

	vd := viewOf(t, out)
	assert.Equal(t, "Email is required", vd.Preview.Controls()[0].Error)

	viewOf(t, h.Handle(ctx, sess, msg(t, MsgSetValue, SetValueData{Name: "email", Value: "a@b.com"})))
	viewOf(t, h.Handle(ctx, sess, msg(t, MsgToggleOption, ToggleOptionData{Name: "tags", Value: "option2", On: true})))
	vd = viewOf(t, h.Handle(ctx, sess, msg(t, MsgToggleOption, ToggleOptionData{Name: "tags", Value: "option1", On: true})))
	tagsControl := vd.Preview.Controls()[2]
	assert.Equal(t, []string{"option2", "option1"}, tagsControl.Value)

	out = h.Handle(ctx, sess, msg(t, MsgSubmit, nil))
	outcome = out[0].Data.(preview.Outcome)
	require.True(t, outcome.OK, outcome.Notification.Message)
	assert.Equal(t, "a@b.com", outcome.Values["email"])

	entries, _, _, err := acts.QueryByModule(ctx, "users", activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.FormSubmitted, entries[0].EventType)

	viewOf(t, h.Handle(ctx, sess, msg(t, MsgSetValue, SetValueData{Name: "email"})))
	sess.WithState(func(_ field.Definition, st *preview.State) {
		_, ok := st.Value("email")
		assert.False(t, ok)
	})
}

func TestDerive_WarningsForDuplicates(t *testing.T) {
	def := startDefinition()
	def.Fields[1].Name = "email"
	def.ModuleName = ""
	sess := NewSession(def)

	vd := Derive(sess)
	assert.Equal(t, []string{
		"module name is required",
		`field name "email" is used by 2 fields`,
	}, vd.Warnings)
	// The schema is still derived: last rule wins for the shared name.
	rule, ok := vd.Schema.Lookup("email")
	require.True(t, ok)
	assert.Equal(t, "number", string(rule.Kind))
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(time.Hour, time.Minute)
	s := m.Create(field.Definition{})
	assert.Same(t, s, m.Get(s.ID))
	assert.Nil(t, m.Get("missing"))

	s.mu.Lock()
	s.LastActiveAt = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 0, m.Len())

	old := m.Create(field.Definition{})
	old.CreatedAt = time.Now().Add(-2 * time.Hour)
	fresh := m.Create(field.Definition{})
	m.Cleanup()
	assert.Equal(t, 1, m.Len())
	assert.Same(t, fresh, m.Get(fresh.ID))
}

func TestSession_EditFailureKeepsDefinition(t *testing.T) {
	s := NewSession(startDefinition())
	_, err := s.Edit(func(d field.Definition) (field.Definition, error) {
		return d.Remove("nope")
	})
	require.ErrorIs(t, err, field.ErrFieldNotFound)
	assert.Len(t, s.Definition().Fields, 3)
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	return m
}

func TestServeHTTP_RoundTrip(t *testing.T) {
	h, _ := newTestHandler()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	hello := readMessage(t, ctx, conn)
	assert.Equal(t, MsgSession, hello["type"])
	sessionID := hello["data"].(map[string]any)["session_id"].(string)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, MsgView, readMessage(t, ctx, conn)["type"])

	require.NoError(t, wsjson.Write(ctx, conn, msg(t, MsgSetDefinition, startDefinition())))
	view := readMessage(t, ctx, conn)
	assert.Equal(t, MsgView, view["type"])
	assert.Equal(t, "set_definition-1", view["request_id"])
	rules := view["data"].(map[string]any)["schema"].(map[string]any)["rules"].([]any)
	assert.Len(t, rules, 3)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MsgPing, ID: "p1"}))
	pong := readMessage(t, ctx, conn)
	assert.Equal(t, MsgPong, pong["type"])
	assert.Equal(t, "p1", pong["request_id"])
	conn.Close(websocket.StatusNormalClosure, "")

	// Reconnecting with the session id resumes the same definition.
	conn2, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?session="+sessionID, nil)
	require.NoError(t, err)
	defer conn2.CloseNow()
	hello = readMessage(t, ctx, conn2)
	assert.Equal(t, sessionID, hello["data"].(map[string]any)["session_id"])
	resumed := readMessage(t, ctx, conn2)
	fields := resumed["data"].(map[string]any)["definition"].(map[string]any)["fields"].([]any)
	assert.Len(t, fields, 3)
}

func TestHandler_CloseEndsConnections(t *testing.T) {
	h, _ := newTestHandler()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	assert.Equal(t, MsgSession, readMessage(t, ctx, conn)["type"])
	assert.Equal(t, MsgView, readMessage(t, ctx, conn)["type"])

	h.Close()
	h.Close()

	var m map[string]any
	err = wsjson.Read(ctx, conn, &m)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
