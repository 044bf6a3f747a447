package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelStrings(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(""))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, WarnLevel)

	log.Debug("debug message")
	log.Info("info message")
	assert.Empty(t, buf.String(), "lines below the level must be dropped")

	log.Warn("warn message")
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	log.Error("error message")
	assert.NotEmpty(t, buf.String())
}

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel)

	log.Info("attach sent",
		String("channel", "orders"),
		Int("attempt", 2),
		Bool("resumed", true),
		Error(errors.New("prior attempt timed out")),
		Duration("backoff", time.Second),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "attach sent", entry["msg"])
	assert.Equal(t, "orders", entry["channel"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, true, entry["resumed"])
	assert.Equal(t, "prior attempt timed out", entry["error"])
	assert.Equal(t, "1s", entry["backoff"])
	assert.NotEmpty(t, entry["ts"])
}

func TestJSONKeyOrderIsStable(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel).WithFields(String("component", "connection"))

	log.Info("state transition", String("from", "connecting"), String("to", "connected"))

	line := buf.String()
	assert.Less(t, strings.Index(line, `"ts"`), strings.Index(line, `"level"`))
	assert.Less(t, strings.Index(line, `"level"`), strings.Index(line, `"msg"`))
	assert.Less(t, strings.Index(line, `"component"`), strings.Index(line, `"from"`))
	assert.Less(t, strings.Index(line, `"from"`), strings.Index(line, `"to"`))
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, InfoLevel, FormatText)

	log.Info("retry armed", String("state", "disconnected"), Duration("delay", 500*time.Millisecond))

	line := buf.String()
	assert.Contains(t, line, " INFO retry armed")
	assert.Contains(t, line, "state=disconnected")
	assert.Contains(t, line, "delay=500ms")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormatQuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, InfoLevel, FormatText)

	log.Warn("frame dropped", String("reason", "queue full while disconnected"))
	assert.Contains(t, buf.String(), `reason="queue full while disconnected"`)
}

func TestWithFieldsInheritance(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf, InfoLevel)
	child := root.WithFields(String("component", "connection")).
		WithFields(String("local_id", "ab12cd34"))

	child.Info("dialing")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connection", entry["component"])
	assert.Equal(t, "ab12cd34", entry["local_id"])

	// The parent is unaffected by the child's bound fields.
	buf.Reset()
	root.Info("bare")
	entry = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasComponent := entry["component"]
	assert.False(t, hasComponent)
}

func TestWithConnectionAndChannelScopes(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel).WithConnection("conn-1").WithChannel("orders")

	log.Info("message delivered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "conn-1", entry["connection_id"])
	assert.Equal(t, "orders", entry["channel"])
}

func TestSetLevelPropagatesToDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf, InfoLevel)
	child := root.WithFields(String("component", "codec"))

	root.SetLevel(ErrorLevel)
	child.Info("suppressed")
	assert.Empty(t, buf.String(), "children share the root's level")

	child.Error("surfaced")
	assert.NotEmpty(t, buf.String())
	assert.Equal(t, ErrorLevel, child.GetLevel())
}

func TestNilErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel)

	log.Info("completed", Error(nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	v, present := entry["error"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestUnmarshalableValueDegradesGracefully(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel)

	log.Info("odd payload", Any("fn", func() {}))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "line must stay valid JSON")
	assert.NotNil(t, entry["fn"])
}

func TestDefaultLoggerSwap(t *testing.T) {
	orig := GetDefaultLogger()
	defer SetDefaultLogger(orig)

	var buf bytes.Buffer
	SetDefaultLogger(NewLogger(&buf, InfoLevel))

	Info("through the default", String("k", "v"))
	assert.Contains(t, buf.String(), `"through the default"`)
}
