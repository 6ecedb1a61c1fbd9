package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(WARN), WithColors(false))

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown 2")
}

func TestPrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(DEBUG), WithColors(false)).
		WithPrefix("progress").
		WithField("library", "lib-1").
		WithField("index", 3)

	l.Debug("saved")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[progress]")
	assert.True(t, strings.HasSuffix(line, "saved index=3 library=lib-1"), line)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nope"))
}
