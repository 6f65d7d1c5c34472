package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
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
	"github.com/matthewbaird/formbuilder/internal/live"
	"github.com/matthewbaird/formbuilder/internal/store"
)

type testEnv struct {
	srv      *httptest.Server
	acts     *activity.MemoryStore
	configs  *store.Configs
	sessions *live.Manager
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := store.NewMemoryKV()
	acts := activity.NewMemoryStore()
	env := &testEnv{
		acts:     acts,
		configs:  store.NewConfigs(kv),
		sessions: live.NewManager(time.Hour, time.Hour),
	}
	cfg := Config{
		Version:  "9.9.9",
		Configs:  env.configs,
		Drafts:   store.NewDrafts(kv),
		Activity: acts,
		Recorder: event.NewActivityRecorder(acts),
		Sessions: env.sessions,
		Logger:   log.New(io.Discard),
	}
	env.srv = httptest.NewServer(NewRouter(cfg))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

func sampleFields() []field.Field {
	email := field.NewDefaultWithID(field.Email, "f-email")
	email.Name, email.Label = "email", "Email"
	age := field.NewDefaultWithID(field.Number, "f-age")
	age.Name, age.Label, age.Required = "age", "Age", false
	age.Attrs = field.NumericAttrs{Min: field.Float(0), Max: field.Float(120)}
	return []field.Field{email, age}
}

func sampleDefinition() field.Definition {
	return field.Definition{ModuleName: "user-profile", Title: "User Profile", Fields: sampleFields()}
}

func TestHealthz(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestFieldTypes(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodGet, "/v1/field-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var palette []map[string]any
	require.NoError(t, json.Unmarshal(body, &palette))
	require.Len(t, palette, len(field.Types()))
	assert.Equal(t, "section", palette[0]["type"])
	assert.Nil(t, palette[0]["kind"])
	assert.Equal(t, "text", palette[1]["type"])
	assert.Equal(t, "string", palette[1]["kind"])
}

func TestDefaultField(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/fields/default", map[string]string{"type": "slider"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decodeBody(t, body)
	assert.Equal(t, "slider", f["type"])
	assert.Equal(t, "Slider Field", f["label"])
	assert.EqualValues(t, 100, f["max"])

	resp, body = env.do(t, http.MethodPost, "/v1/fields/default", map[string]string{"type": "color-wheel"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_TYPE", decodeBody(t, body)["code"])
}

func TestSchema(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/schema", map[string]any{"fields": sampleFields()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := decodeBody(t, body)
	rules := m["rules"].([]any)
	require.Len(t, rules, 2)
	assert.Equal(t, "email", rules[0].(map[string]any)["kind"])
	assert.Contains(t, m["cue"], "email!:")
	assert.Equal(t, []any{"email"}, m["jsonSchema"].(map[string]any)["required"])
}

func TestValidate(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/validate", map[string]any{
		"fields": sampleFields(),
		"input":  map[string]any{"email": "nope", "age": 130},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	m := decodeBody(t, body)
	assert.Equal(t, false, m["ok"])
	errs := m["errors"].(map[string]any)
	assert.Equal(t, "format", errs["email"].(map[string]any)["kind"])
	assert.Equal(t, "Age must be at most 120", errs["age"].(map[string]any)["message"])

	resp, body = env.do(t, http.MethodPost, "/v1/validate", map[string]any{
		"fields": sampleFields(),
		"input":  map[string]any{"email": "a@b.com"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	resp, _ = env.do(t, http.MethodPost, "/v1/validate", map[string]any{
		"fields": sampleFields(),
		"input":  map[string]any{"age": 5},
		"engine": "cue",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestValidate_BadBody(t *testing.T) {
	env := newEnv(t)
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/v1/validate", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLayoutAndPreview(t *testing.T) {
	env := newEnv(t)
	fields := sampleFields()
	fields[1].Section = "Details"

	resp, body := env.do(t, http.MethodPost, "/v1/layout", map[string]any{"fields": fields})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeBody(t, body)
	sections := m["sections"].([]any)
	require.Len(t, sections, 2)
	assert.Equal(t, "default", sections[0].(map[string]any)["key"])
	assert.Equal(t, "Details", sections[1].(map[string]any)["key"])
	assert.Equal(t, []any{"email", "age"}, m["displayFields"])
	assert.Equal(t, []any{[]any{"email"}, []any{"age"}}, m["rows"])

	resp, body = env.do(t, http.MethodPost, "/v1/preview", map[string]any{
		"moduleName": "users",
		"fields":     fields,
		"input":      map[string]any{"email": "a@b.com"},
		"submit":     true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m = decodeBody(t, body)
	assert.Equal(t, true, m["outcome"].(map[string]any)["ok"])
	assert.Len(t, m["view"].(map[string]any)["sections"], 2)

	entries, _, _, err := env.acts.QueryByModule(context.Background(), "users", activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.FormSubmitted, entries[0].EventType)
}

func TestGenerate(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/generate", sampleDefinition())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/x-shellscript; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=user-profile-module.sh`, resp.Header.Get("Content-Disposition"))
	script := string(body)
	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "v9.9.9")
	assert.Contains(t, script, "UserProfile")

	resp, body = env.do(t, http.MethodPost, "/v1/generate", field.Definition{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	m := decodeBody(t, body)
	assert.Equal(t, "INVALID_DEFINITION", m["code"])
	assert.Contains(t, m["error"], "module name is required")
}

func TestConfigs(t *testing.T) {
	env := newEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/v1/modules/users/config", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	def := sampleDefinition()
	def.ListFields = []string{"email"}
	resp, body := env.do(t, http.MethodPut, "/v1/modules/users/config", def)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"fields":[{"name":"email","label":"Email","type":"email"},{"name":"age","label":"Age","type":"number"}],"listFields":["email"]}`, string(body))

	resp, body = env.do(t, http.MethodGet, "/v1/modules/users/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, []string{"email"}, snap.ListFields)
	assert.Len(t, snap.Fields, 2)

	resp, body = env.do(t, http.MethodGet, "/v1/modules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"modules":["users"]}`, string(body))

	resp, body = env.do(t, http.MethodGet, "/v1/modules/users/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeBody(t, body)
	assert.EqualValues(t, 1, m["total_count"])

	resp, _ = env.do(t, http.MethodDelete, "/v1/modules/users/config", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, "/v1/modules/users/config", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDrafts(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/drafts", sampleDefinition())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var draft store.Draft
	require.NoError(t, json.Unmarshal(body, &draft))
	require.NotEmpty(t, draft.ID)
	assert.Equal(t, "user-profile", draft.Module.ModuleName)

	draft.Module.Title = "Profiles"
	resp, _ = env.do(t, http.MethodPost, "/v1/drafts", draft.Module)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/v1/drafts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Drafts []store.Draft `json:"drafts"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Drafts, 1)
	assert.Equal(t, "Profiles", list.Drafts[0].Module.Title)

	resp, _ = env.do(t, http.MethodGet, "/v1/drafts/"+draft.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/v1/drafts/"+draft.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = env.do(t, http.MethodGet, "/v1/drafts/"+draft.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, body)["code"])

	resp, body = env.do(t, http.MethodGet, "/v1/activity/search?q=draft", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, decodeBody(t, body)["total_count"])
}

func TestLive(t *testing.T) {
	env := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(env.srv.URL, "http")+"/v1/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var hello live.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	assert.Equal(t, live.MsgSession, hello.Type)
	assert.Equal(t, 1, env.sessions.Len())

	require.NoError(t, wsjson.Write(ctx, conn, live.ClientMessage{Type: live.MsgPing, ID: "1"}))
	var m live.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &m)) // initial view
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	assert.Equal(t, live.MsgPong, m.Type)
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	kv := store.NewMemoryKV()
	acts := activity.NewMemoryStore()
	cfg := Config{
		ShutdownTimeout: 2 * time.Second,
		Configs:         store.NewConfigs(kv),
		Drafts:          store.NewDrafts(kv),
		Activity:        acts,
		Recorder:        event.NewActivityRecorder(acts),
		Sessions:        live.NewManager(time.Hour, time.Hour),
		Logger:          log.New(io.Discard),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- Serve(ctx, ln, cfg) }()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	conn, _, err := websocket.Dial(dialCtx, "ws://"+ln.Addr().String()+"/v1/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	var hello live.ServerMessage
	require.NoError(t, wsjson.Read(dialCtx, conn, &hello))
	assert.Equal(t, live.MsgSession, hello.Type)

	cancel()

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	var m live.ServerMessage
	for {
		if err = wsjson.Read(dialCtx, conn, &m); err != nil {
			break
		}
	}
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	_, err = http.Get("http://" + ln.Addr().String() + "/healthz")
	assert.Error(t, err)
}
