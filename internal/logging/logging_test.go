package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/pointsync/internal/config"
)

func TestTextLoggerDropsDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{}, &buf)

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestJSONLoggerWithDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{Debug: true, LogFormat: "JSON"}, &buf)

	logger.Debug("visible", "customer_id", "1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "1", line["customer_id"])
}
