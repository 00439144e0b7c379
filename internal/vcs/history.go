package vcs

import (
	"strconv"
	"strings"
	"time"
)

// Revision is one entry in a file's commit history.
type Revision struct {
	CommitID      string
	ShortCommitID string
	// CommitNumber is the short id interpreted as a hex integer, used as a
	// stable numeric handle for hosts that want one.
	CommitNumber int64
	Author       string
	Date         time.Time
	Description  string
	// Action is a readable verb for the name-status letter: "add",
	// "modified", "delete", "branch" (rename or copy), ...
	Action   string
	Filename string
	// RevisionNumber counts from the oldest entry: the most recent log
	// entry gets len(history), the oldest gets 1.
	RevisionNumber int
	FileHash       string
	FileSize       int64
	// BranchSource points at the revision a rename or copy came from.
	BranchSource *Revision
}

// ParseLog runs a small state machine over "git log --name-status
// --pretty=medium --date=raw" output. Each commit contributes one revision;
// header lines fill its fields, the trailing name-status line supplies the
// action and the filename at that revision.
func ParseLog(lines []string) []*Revision {
	var history []*Revision
	var cur *Revision

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "commit "):
			if cur != nil {
				history = append(history, cur)
			}
			cur = &Revision{CommitID: line[len("commit "):]}
			if len(cur.CommitID) >= 8 {
				cur.ShortCommitID = cur.CommitID[:8]
			} else {
				cur.ShortCommitID = cur.CommitID
			}
			if n, err := strconv.ParseInt(cur.ShortCommitID, 16, 64); err == nil {
				cur.CommitNumber = n
			}
		case cur == nil:
			// Ignore anything before the first commit header.
		case strings.HasPrefix(line, "Author: "):
			author := line[len("Author: "):]
			if i := strings.LastIndexByte(author, '<'); i > 0 {
				author = strings.TrimSpace(author[:i])
			}
			cur.Author = author
		case strings.HasPrefix(line, "Date:   "):
			raw := line[len("Date:   "):]
			// --date=raw gives "<unix seconds> <zone>".
			if i := strings.IndexByte(raw, ' '); i >= 0 {
				raw = raw[:i]
			}
			if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
				cur.Date = time.Unix(secs, 0)
			}
		case strings.HasPrefix(line, "    "):
			cur.Description += line[4:] + "\n"
		default:
			// Name-status line: status letter, tab(s), filename. Renames
			// and copies carry two names; the one after the last tab is
			// the name at this revision.
			cur.Action = logAction(line[0])
			if i := strings.LastIndexByte(line, '\t'); i >= 0 {
				cur.Filename = line[i+1:]
			}
		}
	}
	if cur != nil {
		history = append(history, cur)
	}

	// The log starts with the most recent change, so revision numbers run
	// backwards from the count. A rename or copy points at the revision it
	// came from, which is the next entry down the log.
	for i, rev := range history {
		rev.RevisionNumber = len(history) - i
		if rev.Action == "branch" && i < len(history)-1 {
			rev.BranchSource = history[i+1]
		}
	}
	return history
}

func logAction(status byte) string {
	switch status {
	case ' ':
		return "unmodified"
	case 'M':
		return "modified"
	case 'A':
		return "add"
	case 'D':
		return "delete"
	case 'R', 'C':
		return "branch"
	case 'T':
		return "type changed"
	case 'U':
		return "unmerged"
	case 'X':
		return "unknown"
	case 'B':
		return "broken"
	default:
		return ""
	}
}

// ParseLSTree extracts the blob hash and size from "git ls-tree --long"
// output. The format is fixed-width up to the hash:
//
//	100644 blob <40-char sha>    <size>\t<name>
func ParseLSTree(lines []string) (hash string, size int64) {
	if len(lines) == 0 {
		return "", 0
	}
	line := lines[0]
	if len(line) >= 52 {
		hash = line[12:52]
	}
	if tab := strings.IndexByte(line, '\t'); tab > 53 {
		field := strings.TrimSpace(line[53:tab])
		if n, err := strconv.ParseInt(field, 10, 64); err == nil {
			size = n
		}
	}
	return hash, size
}
