package eventbus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/store"
)

func testLogger(buf *bytes.Buffer) *log.Logger {
	l := log.New(buf)
	l.SetLevel(log.DebugLevel)
	return l
}

func testDefinition() field.Definition {
	f := field.NewDefaultWithID(field.Email, "f1")
	f.Name, f.Label = "email", "Email"
	return field.Definition{ModuleName: "users", Fields: []field.Field{f}, ListFields: []string{"email"}}
}

func TestBus_DispatchesInOrder(t *testing.T) {
	var buf bytes.Buffer
	bus := New(8, testLogger(&buf))

	got := make(chan string, 4)
	bus.Subscribe("collect", HandlerFunc(func(_ context.Context, evt event.Event) error {
		got <- evt.Summary
		return nil
	}))
	bus.Subscribe("fail", HandlerFunc(func(context.Context, event.Event) error {
		return errors.New("boom")
	}))
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.Event{Type: "t", Summary: "first"})
	bus.Publish(context.Background(), event.Event{Type: "t", Summary: "second"})
	bus.Stop()

	require.Len(t, got, 2)
	assert.Equal(t, "first", <-got)
	assert.Equal(t, "second", <-got)
	assert.Contains(t, buf.String(), "handler failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestBus_DropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	bus := New(1, testLogger(&buf))

	bus.Publish(context.Background(), event.Event{Type: "a", ID: "1"})
	bus.Publish(context.Background(), event.Event{Type: "b", ID: "2"})
	assert.Contains(t, buf.String(), "dropping event")

	bus.Start(context.Background())
	bus.Stop()
}

func TestBus_PublishAfterStop(t *testing.T) {
	var buf bytes.Buffer
	bus := New(4, testLogger(&buf))
	bus.Start(context.Background())
	bus.Stop()

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), event.Event{Type: "late", ID: "1"})
	})
	assert.Contains(t, buf.String(), "bus stopped, dropping event")
	bus.Stop()
}

func TestBus_StopWhilePublishing(t *testing.T) {
	bus := New(1024, testLogger(&bytes.Buffer{}))
	bus.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(context.Background(), event.Event{Type: "edit"})
			}
		}()
	}
	bus.Stop()
	wg.Wait()
}

func TestBus_DrainsOnCancel(t *testing.T) {
	bus := New(4, testLogger(&bytes.Buffer{}))
	got := make(chan string, 4)
	bus.Subscribe("collect", HandlerFunc(func(_ context.Context, evt event.Event) error {
		got <- evt.ID
		return nil
	}))

	bus.Publish(context.Background(), event.Event{ID: "1"})
	bus.Publish(context.Background(), event.Event{ID: "2"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	select {
	case <-bus.done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not exit after cancel")
	}
	assert.Len(t, got, 2)
}

func TestAutosaveConsumer(t *testing.T) {
	ctx := context.Background()
	configs := store.NewConfigs(store.NewMemoryKV())
	c := NewAutosaveConsumer(configs, testLogger(&bytes.Buffer{}))

	def := testDefinition()
	require.NoError(t, c.HandleEvent(ctx, event.NewFormSubmitted("users", nil)))
	_, err := configs.Load(ctx, "users")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, c.HandleEvent(ctx, event.NewDefinitionChanged(def, "add", "f1")))
	snap, err := configs.Load(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []store.SnapshotField{{Name: "email", Label: "Email", Type: field.Email}}, snap.Fields)
	assert.Equal(t, []string{"email"}, snap.ListFields)
}

type failingKV struct {
	*store.MemoryKV
}

func (failingKV) Put(context.Context, string, string, []byte) error {
	return errors.New("disk full")
}

func TestAutosaveConsumer_FailureIsWarning(t *testing.T) {
	var buf bytes.Buffer
	c := NewAutosaveConsumer(store.NewConfigs(failingKV{store.NewMemoryKV()}), testLogger(&buf))

	err := c.HandleEvent(context.Background(), event.NewDefinitionChanged(testDefinition(), "add", "f1"))
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "saving form config failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestLogConsumer(t *testing.T) {
	var buf bytes.Buffer
	c := NewLogConsumer(testLogger(&buf))
	require.NoError(t, c.HandleEvent(context.Background(), event.NewConfigSaved(testDefinition())))
	assert.Contains(t, buf.String(), "Form config saved for users")
	assert.Contains(t, buf.String(), "config.saved")
}
