package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New("prod", &buf).Info("event initialized", "title", "Gala")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "event initialized", line["msg"])
	assert.Equal(t, "Gala", line["title"])
}

func TestNew_DevLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	New("dev", &buf).Debug("debug line")

	assert.Contains(t, buf.String(), "msg=\"debug line\"")
}
