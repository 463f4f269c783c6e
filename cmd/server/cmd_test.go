package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pngBytes, 0o600))
	}
}

func TestPruneCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeImages(t, dir,
		"a_0_20260101_000000_000001.png",
		"a_1_20260101_000000_000002.png",
		"a_2_20260101_000000_000003.png",
	)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"prune", "--dir", dir, "--max-count", "1"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "removed 2 image(s)")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a_2_20260101_000000_000003.png", entries[0].Name())
}

func writePruneConfig(t *testing.T, imagesDir string, maxCount int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("artifacts:\n  dir: %s\n  max_count: %d\n", imagesDir, maxCount)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPruneCommand_UsesConfigFile(t *testing.T) {
	t.Parallel()

	names := []string{
		"a_0_20260101_000000_000001.png",
		"a_1_20260101_000000_000002.png",
		"a_2_20260101_000000_000003.png",
		"a_3_20260101_000000_000004.png",
	}

	tests := []struct {
		name      string
		maxCount  int
		extraArgs []string
		wantKept  []string
	}{
		{
			name:     "config values",
			maxCount: 2,
			wantKept: names[2:],
		},
		{
			name:      "flag overrides config",
			maxCount:  2,
			extraArgs: []string{"--max-count", "3"},
			wantKept:  names[1:],
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeImages(t, dir, names...)
			configPath := writePruneConfig(t, dir, tc.maxCount)

			root := newRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"--config", configPath, "prune"}, tc.extraArgs...))
			require.NoError(t, root.Execute())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			kept := make([]string, 0, len(entries))
			for _, e := range entries {
				kept = append(kept, e.Name())
			}
			assert.Equal(t, tc.wantKept, kept)
		})
	}
}

func TestPruneCommand_DirFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	configured := t.TempDir()
	writeImages(t, configured, "a_0_20260101_000000_000001.png", "a_1_20260101_000000_000002.png")
	override := t.TempDir()
	writeImages(t, override, "b_0_20260101_000000_000001.png", "b_1_20260101_000000_000002.png")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", writePruneConfig(t, configured, 1), "prune", "--dir", override})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), override)
	left, err := os.ReadDir(override)
	require.NoError(t, err)
	assert.Len(t, left, 1)
	untouched, err := os.ReadDir(configured)
	require.NoError(t, err)
	assert.Len(t, untouched, 2)
}

func TestPruneCommand_MissingConfigFile(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "prune"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestPruneCommand_RejectsZeroMaxCount(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"prune", "--dir", t.TempDir(), "--max-count", "0"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-count")
}

func TestServeCommand_ConfigError(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "serve"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
