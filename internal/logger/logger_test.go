package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(DebugLevel, &buf)

	log.Info("Bridge", "write queued", map[string]interface{}{"seq": 3})
	log.Error("Bridge", "write failed", errors.New("boom"), map[string]interface{}{"theme": "dark"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "Bridge", lines[0]["component"])
	assert.Equal(t, "write queued", lines[0]["message"])
	assert.EqualValues(t, 3, lines[0]["seq"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "dark", lines[1]["theme"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(WarnLevel, &buf)

	log.Debug("Host", "hidden", nil)
	log.Info("Host", "hidden", nil)
	log.Warning("Host", "shown", nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(InfoLevel, &buf).With(map[string]interface{}{"session": "abc"})

	log.Info("App", "started", nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "abc", lines[0]["session"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"warn":    WarnLevel,
		"error":   ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
