package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		configured Level
		message    Level
		appears    bool
	}{
		{LevelTrace, LevelTrace, true},
		{LevelDebug, LevelTrace, false},
		{LevelDebug, LevelDebug, true},
		{LevelInfo, LevelDebug, false},
		{LevelInfo, LevelInfo, true},
		{LevelInfo, LevelWarn, true},
		{LevelWarn, LevelInfo, false},
		{LevelError, LevelWarn, false},
		{LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.configured.String()+"/"+tt.message.String(), func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := New(buf, tt.configured, false)
			l.logf(tt.message, "hello %d", 42)
			assert.Equal(t, tt.appears, strings.Contains(buf.String(), "hello 42"))
		})
	}
}

func TestLineFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, LevelInfo, false).Warnf("permission: %s", "/r/x")

	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] permission: /r/x\n$`), buf.String())
}

func TestColorOutput(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = saved })

	buf := &bytes.Buffer{}
	New(buf, LevelInfo, true).Errorf("boom")
	assert.Contains(t, buf.String(), "\x1b[31mERROR\x1b[0m")

	buf.Reset()
	New(buf, LevelInfo, false).Errorf("boom")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"":      LevelInfo,
		"TRACE": LevelTrace,
		"debug": LevelDebug,
		" warn": LevelWarn,
		"error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(LevelError))
	l.Errorf("nothing")
	assert.NoError(t, l.Close())
}

func TestSetupAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finder.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	var stderr bytes.Buffer
	l := Setup(Options{Level: LevelInfo, File: path, Stderr: &stderr, Color: true})
	l.Infof("Starting search")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "existing\n"))
	assert.Contains(t, string(data), "[INFO] Starting search")
	assert.NotContains(t, string(data), "\x1b[")
	assert.Empty(t, stderr.String())
}

func TestSetupFallsBackToStderr(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing-dir", "finder.log")
	l := Setup(Options{Level: LevelInfo, File: path, Stderr: &stderr})
	l.Infof("still logging")

	out := stderr.String()
	assert.Contains(t, out, "[WARN] Could not open log file")
	assert.Contains(t, out, "still logging")
}
