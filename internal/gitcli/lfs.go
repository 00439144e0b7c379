package gitcli

import (
	"os"
	"path/filepath"
	"runtime"
)

// LFSInvocation rewrites inv so it runs a git-lfs subcommand. When a
// platform-specific lfs helper binary ships next to the running executable
// it is used directly; otherwise the command is dispatched through
// "git lfs <command>".
func LFSInvocation(inv Invocation) Invocation {
	if helper := lfsHelperPath(); helper != "" {
		inv.Bin = helper
		return inv
	}
	inv.Args = append([]string{inv.Command}, inv.Args...)
	inv.Command = "lfs"
	return inv
}

func lfsHelperPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	dir := filepath.Dir(exe)
	for _, name := range lfsHelperNames() {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func lfsHelperNames() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"git-lfs.exe"}
	case "darwin":
		return []string{"git-lfs-mac-" + runtime.GOARCH, "git-lfs"}
	default:
		return []string{"git-lfs-" + runtime.GOOS + "-" + runtime.GOARCH, "git-lfs"}
	}
}
