package gclogw

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Severity
	}{
		{-5, SeverityDebug},
		{0, SeverityDebug},
		{10, SeverityDebug},
		{20, SeverityDebug},
		{29, SeverityDebug},
		{30, SeverityInfo},
		{35, SeverityInfo},
		{39, SeverityInfo},
		{40, SeverityWarning},
		{49, SeverityWarning},
		{50, SeverityError},
		{59, SeverityError},
		{60, SeverityCritical},
		{1000, SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, SeverityForLevel(tt.level), "level %d", tt.level)
	}
}

func TestStreamWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	w.Write(Entry{
		Severity: SeverityWarning,
		Message:  "quota almost exhausted",
		Fields:   map[string]interface{}{"remaining": float64(3)},
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARNING", record["severity"])
	assert.Equal(t, "quota almost exhausted", record["message"])
	assert.Equal(t, float64(3), record["remaining"])
}

func TestStreamWriter_Write_emptyMessageKept(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	w.Write(Entry{Severity: SeverityInfo})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	message, ok := record["message"]
	assert.True(t, ok, "message field must always be present")
	assert.Equal(t, "", message)
}

func TestStreamWriter_Write_unencodableFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	w.Write(Entry{
		Severity: SeverityError,
		Message:  "bad payload",
		Fields:   map[string]interface{}{"ch": make(chan int)},
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["severity"])
	assert.Contains(t, record["message"], "bad payload")
}
