package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	want := Settings{
		BinaryPath:     "/usr/local/bin/git",
		LockUser:       "alice",
		UseLocking:     true,
		StatusBranches: []string{"origin/main", "origin/release/*"},
		ContentRoots:   []string{"Content"},
		Workers:        2,
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.LockUser)
	assert.Equal(t, want.StatusBranches, got.StatusBranches)
	assert.Equal(t, []string{"Content"}, got.ContentRoots)
	// Unset slices come back normalized to defaults.
	assert.Equal(t, Default().LockableHints, got.LockableHints)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, Save(path, Default()))
	require.NoError(t, Save(path, Settings{LockUser: "bob"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
