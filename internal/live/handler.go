package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/preview"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// Handler manages WebSocket connections for live builder sessions.
type Handler struct {
	sessions  *Manager
	recorder  event.Recorder
	logger    *log.Logger
	closing   chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a WebSocket handler. recorder may be nil.
func NewHandler(sessions *Manager, recorder event.Recorder, logger *log.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		recorder: recorder,
		logger:   logging.Or(logger).WithPrefix("live"),
		closing:  make(chan struct{}),
	}
}

// Close tells every open connection to go away. Connections accepted after
// Close are closed immediately.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// ServeHTTP upgrades to WebSocket and runs the message loop. A "session"
// query parameter resumes an existing session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-h.closing:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		case <-ctx.Done():
		}
	}()

	sess := h.sessions.Get(r.URL.Query().Get("session"))
	if sess == nil {
		sess = h.sessions.Create(field.Definition{})
	}
	sess.Touch()

	h.send(ctx, conn, ServerMessage{Type: MsgSession, Data: SessionData{SessionID: sess.ID}})
	h.send(ctx, conn, ServerMessage{Type: MsgView, Data: Derive(sess)})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.logger.Debug("connection closed", "session", sess.ID, "status", status)
			}
			return
		}
		for _, out := range h.Handle(ctx, sess, msg) {
			h.send(ctx, conn, out)
		}
	}
}

// Handle applies one client message to sess and returns the replies.
func (h *Handler) Handle(ctx context.Context, sess *Session, msg ClientMessage) []ServerMessage {
	switch msg.Type {
	case MsgPing:
		sess.Touch()
		return []ServerMessage{{Type: MsgPong, RequestID: msg.ID}}
	case MsgSubmit:
		return h.submit(ctx, sess, msg)
	case MsgSetValue, MsgToggleOption:
		if err := applyValue(sess, msg); err != nil {
			return []ServerMessage{errorMessage(msg.ID, err)}
		}
		return []ServerMessage{h.view(sess, msg.ID)}
	}

	op, fieldID, err := h.edit(sess, msg)
	if err != nil {
		return []ServerMessage{errorMessage(msg.ID, err)}
	}
	h.record(ctx, event.NewDefinitionChanged(sess.Definition(), op, fieldID))
	return []ServerMessage{h.view(sess, msg.ID)}
}

type protocolError struct {
	code string
	err  error
}

func (e *protocolError) Error() string { return e.err.Error() }
func (e *protocolError) Unwrap() error { return e.err }

func invalidData(typ string, err error) error {
	return &protocolError{code: "invalid_data", err: fmt.Errorf("invalid %s data: %w", typ, err)}
}

func errorMessage(requestID string, err error) ServerMessage {
	code := "edit_failed"
	var pe *protocolError
	switch {
	case errors.As(err, &pe):
		code = pe.code
	case errors.Is(err, field.ErrFieldNotFound):
		code = "not_found"
	}
	return ServerMessage{
		Type:      MsgError,
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: err.Error()},
	}
}

func decode(msg ClientMessage, v any) error {
	if len(msg.Data) == 0 {
		return invalidData(msg.Type, errors.New("missing data"))
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return invalidData(msg.Type, err)
	}
	return nil
}

// edit applies a definition edit and returns the operation and field id for
// the change event.
func (h *Handler) edit(sess *Session, msg ClientMessage) (string, string, error) {
	switch msg.Type {
	case MsgSetDefinition:
		var def field.Definition
		if err := decode(msg, &def); err != nil {
			return "", "", err
		}
		sess.Reset(def)
		return "set_definition", "", nil

	case MsgAddField:
		var data AddFieldData
		if err := decode(msg, &data); err != nil {
			return "", "", err
		}
		var f field.Field
		switch {
		case data.Field != nil:
			f = *data.Field
			if !f.Type.Valid() {
				return "", "", invalidData(msg.Type, fmt.Errorf("%w: %q", field.ErrUnknownType, f.Type))
			}
			if f.ID == "" {
				f.ID = field.NewDefault(f.Type).ID
			}
		default:
			t, err := field.ParseType(string(data.Type))
			if err != nil {
				return "", "", invalidData(msg.Type, err)
			}
			f = field.NewDefault(t)
		}
		_, err := sess.Edit(func(d field.Definition) (field.Definition, error) {
			return d.Add(f), nil
		})
		return "add", f.ID, err

	case MsgUpdateField:
		var data UpdateFieldData
		if err := decode(msg, &data); err != nil {
			return "", "", err
		}
		_, err := sess.Edit(func(d field.Definition) (field.Definition, error) {
			return d.Replace(data.Field)
		})
		return "update", data.Field.ID, err

	case MsgMoveField:
		var data MoveFieldData
		if err := decode(msg, &data); err != nil {
			return "", "", err
		}
		_, err := sess.Edit(func(d field.Definition) (field.Definition, error) {
			return d.Move(data.From, data.To)
		})
		return "move", data.From, err

	case MsgRemoveField:
		var data FieldRefData
		if err := decode(msg, &data); err != nil {
			return "", "", err
		}
		_, err := sess.Edit(func(d field.Definition) (field.Definition, error) {
			return d.Remove(data.ID)
		})
		return "remove", data.ID, err

	case MsgDuplicateField:
		var data FieldRefData
		if err := decode(msg, &data); err != nil {
			return "", "", err
		}
		var copyID string
		_, err := sess.Edit(func(d field.Definition) (field.Definition, error) {
			next, dup, err := d.Duplicate(data.ID)
			copyID = dup.ID
			return next, err
		})
		return "duplicate", copyID, err
	}
	return "", "", &protocolError{code: "unknown_type", err: fmt.Errorf("unknown message type: %s", msg.Type)}
}

func applyValue(sess *Session, msg ClientMessage) error {
	if msg.Type == MsgSetValue {
		var data SetValueData
		if err := decode(msg, &data); err != nil {
			return err
		}
		sess.WithState(func(_ field.Definition, st *preview.State) {
			if data.Value == nil {
				st.Clear(data.Name)
				return
			}
			st.Set(data.Name, data.Value)
		})
		return nil
	}

	var data ToggleOptionData
	if err := decode(msg, &data); err != nil {
		return err
	}
	var err error
	sess.WithState(func(def field.Definition, st *preview.State) {
		for _, f := range def.Fields {
			if f.Name == data.Name {
				st.Toggle(f, data.Value, data.On)
				return
			}
		}
		err = fmt.Errorf("%w: %s", field.ErrFieldNotFound, data.Name)
	})
	return err
}

func (h *Handler) submit(ctx context.Context, sess *Session, msg ClientMessage) []ServerMessage {
	var out preview.Outcome
	var module string
	sess.WithState(func(def field.Definition, st *preview.State) {
		module = def.ModuleName
		out = preview.Submit(ctx, def.Fields, st, nil)
	})
	if out.OK {
		h.record(ctx, event.NewFormSubmitted(module, out.Values))
	}
	return []ServerMessage{
		{Type: MsgSubmitted, RequestID: msg.ID, Data: out},
		h.view(sess, msg.ID),
	}
}

func (h *Handler) view(sess *Session, requestID string) ServerMessage {
	return ServerMessage{Type: MsgView, RequestID: requestID, Data: Derive(sess)}
}

// Derive recomputes the schema, preview and list mock of a session.
func Derive(sess *Session) ViewData {
	var vd ViewData
	sess.WithState(func(def field.Definition, st *preview.State) {
		vd = ViewData{
			Definition: def.Clone(),
			Config:     def.JSONConfig(),
			Schema:     schema.Synthesize(def.Fields),
			Preview:    preview.Render(def.Fields, st),
			List:       preview.ListPreview(def, nil),
			Warnings:   Warnings(def),
		}
	})
	return vd
}

// Warnings lists the problems Definition.Check reports, one per entry.
func Warnings(def field.Definition) []string {
	err := def.Check()
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func (h *Handler) record(ctx context.Context, evt event.Event) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, evt); err != nil {
		h.logger.Warn("event recording failed", "type", evt.Type, "err", err)
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Warn("write failed", "type", msg.Type, "err", err)
	}
}
