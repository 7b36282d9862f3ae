package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONCarriesProcessAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", AppEnv: "staging"}, "worker")
	logger.Info("started")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "started", record["msg"])
	assert.Equal(t, "salesrecon", record["app"])
	assert.Equal(t, "worker", record["binary"])
	assert.Equal(t, "staging", record["env"])
}

func TestNewLoggerTextByDefault(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, nil, "console").Info("ready")

	out := buf.String()
	assert.Contains(t, out, "msg=ready")
	assert.Contains(t, out, "binary=console")
	assert.NotContains(t, out, "env=")
}
