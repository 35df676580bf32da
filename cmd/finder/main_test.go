package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelscutari/finder/internal/search"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// keep the user's config file out of the tests
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "needle-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b.txt"), []byte("foo bar\nneedle in text\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "needle.go"), []byte("package x\n"), 0o644))
	return root
}

func lines(s string) []string {
	out := strings.Split(strings.TrimSpace(s), "\n")
	sort.Strings(out)
	return out
}

func TestSearchAllModes(t *testing.T) {
	root := tree(t)
	stdout, _, err := execute(t, "needle", root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Content: " + filepath.Join(root, "a", "b.txt") + ":2:needle in text",
		"Directory: " + filepath.Join(root, "a", "needle-dir"),
		"File: " + filepath.Join(root, "needle.go"),
	}, lines(stdout))
}

func TestModeFlag(t *testing.T) {
	root := tree(t)
	stdout, _, err := execute(t, "--mode", "file-name", "needle", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"File: " + filepath.Join(root, "needle.go")}, lines(stdout))

	stdout, _, err = execute(t, "-m", "dir-name", "needle", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Directory: " + filepath.Join(root, "a", "needle-dir")}, lines(stdout))
}

func TestRegexAndCase(t *testing.T) {
	root := tree(t)
	stdout, _, err := execute(t, "-m", "content", "-r", `^FOO\s`, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Content: " + filepath.Join(root, "a", "b.txt") + ":1:foo bar"}, lines(stdout))

	stdout, _, err = execute(t, "-m", "content", "-r", "-c", `^FOO\s`, root)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(stdout))
}

func TestMaxDepthFlag(t *testing.T) {
	root := tree(t)
	stdout, _, err := execute(t, "-d", "0", "needle", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"File: " + filepath.Join(root, "needle.go")}, lines(stdout))
}

func TestNoMatchesIsSuccess(t *testing.T) {
	root := tree(t)
	stdout, stderr, err := execute(t, "zzz-not-there", root)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "found 0 matches.")
}

func TestFatalErrors(t *testing.T) {
	root := tree(t)
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"bad regex", []string{"-r", "foo(", root}, search.ErrInvalidPattern},
		{"missing root", []string{"x", filepath.Join(root, "gone")}, search.ErrRootNotFound},
		{"file root", []string{"x", filepath.Join(root, "needle.go")}, search.ErrRootNotDir},
		{"bad mode", []string{"-m", "sideways", "x", root}, search.ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitFatal, exitCode(err))
			assert.Empty(t, stdout, "no partial results on fatal errors")
		})
	}
}

func TestConfigFileDefaultsAndFlagOverride(t *testing.T) {
	root := tree(t)
	cfgPath := filepath.Join(t.TempDir(), "finder.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: file-name\nprogress: false\n"), 0o644))

	stdout, _, err := execute(t, "--config", cfgPath, "needle", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"File: " + filepath.Join(root, "needle.go")}, lines(stdout))

	stdout, _, err = execute(t, "--config", cfgPath, "--mode", "all", "needle", root)
	require.NoError(t, err)
	assert.Len(t, lines(stdout), 3)
}

func TestMalformedConfigIsFatal(t *testing.T) {
	root := tree(t)
	cfgPath := filepath.Join(t.TempDir(), "finder.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: [\n"), 0o644))

	_, _, err := execute(t, "--config", cfgPath, "needle", root)
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
}

func TestLogFile(t *testing.T) {
	root := tree(t)
	logPath := filepath.Join(t.TempDir(), "finder.log")
	_, stderr, err := execute(t, "--log-file", logPath, "--log-level", "debug", "needle", root)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] mode=all")
	assert.Contains(t, string(data), "Search completed in")
	assert.NotContains(t, stderr, "Search completed in")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitInterrupted, exitCode(context.Canceled))
	assert.Equal(t, exitInterrupted, exitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, exitFatal, exitCode(errors.New("boom")))
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version)
}

func TestPatternRequired(t *testing.T) {
	_, _, err := execute(t)
	assert.Error(t, err)
}

func TestTUINeedsTerminal(t *testing.T) {
	root := tree(t)
	stdout, _, err := execute(t, "--tui", "needle", root)
	assert.ErrorIs(t, err, errNotTerminal)
	assert.Equal(t, exitFatal, exitCode(err))
	assert.Empty(t, stdout)

	_, _, err = execute(t, "--tui", "-r", "foo(", root)
	assert.ErrorIs(t, err, search.ErrInvalidPattern, "configuration is checked before the terminal")
}
