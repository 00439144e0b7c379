// Package buildinfo exposes version details recorded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the VCS revision stamped at compile time, shortened to
// twelve characters, with a "-dirty" suffix when the tree had local edits.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

// VersionWithRevision returns the version string plus the stamped revision
// if present.
func VersionWithRevision() string {
	version := Version()
	revision := Revision()
	if revision == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, revision)
}
