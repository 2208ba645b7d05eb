package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(min Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := log.New(&buf, "", 0)
	return New(min, inner), &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(Warn)

	l.Infof("should not appear")
	assert.Equal(t, "", buf.String())

	l.Warnf("should appear: %d", 42)
	assert.True(t, strings.Contains(buf.String(), "[WARN]"))
	assert.True(t, strings.Contains(buf.String(), "42"))
}

func TestDebugPassesAtDebugLevel(t *testing.T) {
	l, buf := newTestLogger(Debug)
	l.Debugf("hello")
	assert.True(t, strings.Contains(buf.String(), "[DEBUG]"))
}

func TestParseLevelDefaultsToInfoOnUnknown(t *testing.T) {
	lvl, ok := parseLevel("nonsense")
	assert.False(t, ok)
	assert.Equal(t, Info, lvl)
}

func TestParseLevelRecognizesAllNames(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": Debug, "DEBUG": Debug,
		"info": Info,
		"warn": Warn, "warning": Warn,
		"error": Error,
	} {
		lvl, ok := parseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, lvl, in)
	}
}
