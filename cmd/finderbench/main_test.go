package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsEveryWorkerCount(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "hit.txt"), []byte("hit\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-dir", root, "-pattern", "hit", "-workers", "1, 3", "-repeat", "2"}, &out))

	text := out.String()
	assert.Contains(t, text, "walk:       entries=3 ")
	assert.Contains(t, text, "workers=1   entries=3 matches=2 ")
	assert.Contains(t, text, "workers=3   entries=3 matches=2 ")
}

func TestParseWorkers(t *testing.T) {
	counts, err := parseWorkers("1,2, 8")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 8}, counts)

	for _, bad := range []string{"", "0", "x", "2,-1"} {
		_, err := parseWorkers(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-mode", "sideways"}, &out))
	assert.Error(t, run([]string{"-dir", filepath.Join(t.TempDir(), "gone")}, &out))
}
