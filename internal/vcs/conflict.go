package vcs

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ParseUnmergedStages reads "git ls-files --unmerged" output for a single
// conflicted file. A full three-way conflict has exactly three stage lines
// (1 common ancestor, 2 ours, 3 theirs); anything else is not treated as a
// resolvable conflict.
//
//	100644 <blob sha> <stage>\t<path>
func ParseUnmergedStages(lines []string) (ResolveInfo, bool) {
	if len(lines) != 3 {
		return ResolveInfo{}, false
	}
	var info ResolveInfo
	for _, line := range lines {
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return ResolveInfo{}, false
		}
		fields := strings.Fields(line[:tab])
		if len(fields) != 3 {
			return ResolveInfo{}, false
		}
		blob, stage := fields[1], fields[2]
		path := line[tab+1:]
		switch stage {
		case "1":
			info.BaseRevision = blob
			info.BaseFile = path
		case "3":
			info.RemoteRevision = blob
			info.RemoteFile = path
		}
	}
	if !info.IsValid() {
		return ResolveInfo{}, false
	}
	return info, true
}

// ConflictPreview renders a unified diff between the common-ancestor
// content and the local content of a conflicted file, so the user can see
// what they are about to mark resolved. Lines may arrive with or without
// their trailing newline.
func ConflictPreview(base, ours []string, name string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        terminated(base),
		B:        terminated(ours),
		FromFile: name + " (base)",
		ToFile:   name + " (ours)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func terminated(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		out[i] = line
	}
	return out
}
