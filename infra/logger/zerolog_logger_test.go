package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "engine", Options{Level: "debug", Format: "json"})
	l.Debugw("picked", map[string]any{"warehouse": "w1", "kg": 12.5})
	l.Infof("run %s", "baseline")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "w1", entry["warehouse"])
	assert.Equal(t, "picked", entry["message"])
}

func TestZerologLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "engine", Options{Level: "warn", Format: "json"})
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warnf("shown")
	l.Errorf("shown too")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestZerologLoggerConsole(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var buf bytes.Buffer
	l := newZerolog(&buf, "cli", Options{})
	l.Infof("hello %d", 1)
	assert.Contains(t, buf.String(), "hello 1")
	assert.NotContains(t, buf.String(), "{")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debugf("x")
	l.Debugw("x", nil)
	l.Infof("x")
	l.Warnf("x")
	l.Errorf("x")
}
