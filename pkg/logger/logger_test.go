package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("remessa", &buf)

	log.Info("instruments issued", map[string]interface{}{
		"count":     3,
		"bank_code": "033",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "remessa", entry["service"])
	assert.Equal(t, "instruments issued", entry["message"])
	assert.Equal(t, "033", entry["bank_code"])
	assert.Equal(t, float64(3), entry["count"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestJSONLogger_NilFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("remessa", &buf)

	log.Warn("sequence wrapped", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
}
