package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lure/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Logging: config.LoggingConfig{Level: "debug", JSON: true}}

	newLogger(cfg, &buf).Debug("hello", "track", "Roygbiv")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "Roygbiv", line["track"])
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Logging: config.LoggingConfig{Level: "error"}}

	logger := newLogger(cfg, &buf)
	logger.Info("quiet")
	assert.Empty(t, buf.String())
	logger.Error("loud")
	assert.Contains(t, buf.String(), "loud")
}
