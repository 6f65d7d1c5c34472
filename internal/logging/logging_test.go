package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/formbuilder/internal/config"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, config.LoggingConfig{Level: "warn"})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "module", "users")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "module=users")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestComponent_Prefix(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)

	prev := Logger()
	Set(l)
	t.Cleanup(func() { Set(prev) })

	Component("store").Debug("opened")
	assert.Contains(t, buf.String(), "store")
	assert.Contains(t, buf.String(), "opened")
	assert.Equal(t, log.DebugLevel, Logger().GetLevel())
}

func TestOr(t *testing.T) {
	l := log.New(&bytes.Buffer{})
	assert.Same(t, l, Or(l))
	assert.Same(t, Logger(), Or(nil))
}
