package gitcli

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FindGitBinary returns the path to a usable git executable: $PATH first,
// then well-known install locations for the platform. Empty when nothing
// was found.
func FindGitBinary() string {
	if path, err := exec.LookPath("git"); err == nil {
		return path
	}
	for _, candidate := range wellKnownGitPaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func wellKnownGitPaths() []string {
	switch runtime.GOOS {
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		return []string{
			filepath.Join(programFiles, "Git", "bin", "git.exe"),
			filepath.Join(programFiles, "Git", "cmd", "git.exe"),
		}
	case "darwin":
		return []string{
			"/usr/local/git/bin/git",
			"/usr/local/bin/git",
			"/opt/homebrew/bin/git",
			"/opt/local/bin/git",
			"/usr/bin/git",
		}
	default:
		return []string{
			"/usr/bin/git",
			"/usr/local/bin/git",
		}
	}
}

// FindRepoRoot walks up from dir looking for a .git entry. A .git file
// (not just a directory) counts: worktrees and submodules store a pointer
// file there.
func FindRepoRoot(dir string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
