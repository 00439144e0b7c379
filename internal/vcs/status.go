package vcs

import "strings"

// ParseStatusLine maps the two status characters of a porcelain v1 line to
// file and tree state. Precedence is fixed: conflict forms first, then
// untracked/ignored, then the index character, then the work-tree
// character.
func ParseStatusLine(line string) (FileState, TreeState) {
	if len(line) < 2 {
		return FileUnknown, TreeUnset
	}
	index := line[0]
	wtree := line[1]

	// Conflicts are usually flagged with a U on either side, but
	// both-added and both-deleted are conflicts too.
	if index == 'U' || wtree == 'U' ||
		(index == 'A' && wtree == 'A') ||
		(index == 'D' && wtree == 'D') {
		return FileUnmerged, TreeWorking
	}

	tree := TreeUnset
	if index == ' ' {
		tree = TreeWorking
	} else if wtree == ' ' {
		tree = TreeStaged
	}

	switch {
	case index == '?' || wtree == '?':
		return FileUnknown, TreeUntracked
	case index == '!' || wtree == '!':
		return FileUnknown, TreeIgnored
	case index == 'A':
		return FileAdded, tree
	case index == 'D':
		return FileDeleted, tree
	case wtree == 'D':
		return FileMissing, tree
	case index == 'M' || wtree == 'M':
		return FileModified, tree
	case index == 'R':
		return FileRenamed, tree
	case index == 'C':
		return FileCopied, tree
	default:
		return FileUnknown, tree
	}
}

// FilenameFromStatus extracts the relative path from a porcelain status
// line. Renames carry "from -> to"; only the destination matters. Paths
// may contain spaces, so no further splitting happens.
func FilenameFromStatus(line string) string {
	if i := strings.LastIndexByte(line, '>'); i >= 0 {
		if i+2 <= len(line) {
			return line[i+2:]
		}
		return ""
	}
	if len(line) > 3 {
		return line[3:]
	}
	return ""
}
