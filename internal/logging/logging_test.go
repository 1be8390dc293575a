package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupa-lang/tupa/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.Log{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tupa", entry["logger"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.Log{Level: "debug", Format: "console"}, &buf)
	require.NoError(t, err)

	log.Debug("parsing")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "parsing")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.Log{Level: "loud", Format: "json"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(config.Log{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
