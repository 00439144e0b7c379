// Package config holds the user-editable settings for a bridged
// repository.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk configuration. Zero values fall back to the
// defaults from Default via Normalized.
type Settings struct {
	// BinaryPath locates the git executable; empty means auto-discover.
	BinaryPath string `yaml:"binary_path,omitempty"`
	// LockUser is the identity used for lfs locks; empty means the
	// repository's user.name.
	LockUser string `yaml:"lock_user,omitempty"`
	// UseLocking turns the lfs exclusive-checkout workflow on.
	UseLocking bool `yaml:"use_locking"`
	// StatusBranches are remote branch patterns checked for divergence,
	// e.g. "origin/main", "origin/release/*".
	StatusBranches []string `yaml:"status_branches,omitempty"`
	// ContentRoots are the repo-relative directories holding tracked
	// assets.
	ContentRoots []string `yaml:"content_roots,omitempty"`
	// RestartWatch lists repo-relative paths whose upstream changes mean
	// the editor binary is stale.
	RestartWatch []string `yaml:"restart_watch,omitempty"`
	// LockableHints are the gitattributes patterns probed for the
	// lockable flag.
	LockableHints []string `yaml:"lockable_hints,omitempty"`
	// Workers sizes the command worker pool; 0 runs commands inline.
	Workers int `yaml:"workers,omitempty"`
	// BackgroundRefresh enables the periodic fetch + status sweep.
	BackgroundRefresh bool `yaml:"background_refresh"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		UseLocking:        true,
		ContentRoots:      []string{"Content", "Config"},
		RestartWatch:      []string{".checksum", "Binaries/", "Plugins/"},
		LockableHints:     []string{"*.uasset", "*.umap"},
		Workers:           4,
		BackgroundRefresh: true,
	}
}

// Normalized fills unset slice and pool fields from the defaults.
func (s Settings) Normalized() Settings {
	def := Default()
	if len(s.ContentRoots) == 0 {
		s.ContentRoots = def.ContentRoots
	}
	if len(s.RestartWatch) == 0 {
		s.RestartWatch = def.RestartWatch
	}
	if len(s.LockableHints) == 0 {
		s.LockableHints = def.LockableHints
	}
	if s.Workers < 0 {
		s.Workers = 0
	}
	return s
}

// Load reads settings from path. A missing file is not an error: it yields
// the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s.Normalized(), nil
}

// Save writes settings atomically: temp file in the same directory, then
// rename.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
