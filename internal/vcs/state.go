// Package vcs models per-file version control state for a git + git-lfs
// working copy and parses the output of the git tools into that model.
package vcs

import "time"

// FileState is the per-file change kind derived from git status or from a
// completed operation.
type FileState uint8

const (
	// FileUnset means the producing operation had nothing to say about the
	// file; merges skip unset fields.
	FileUnset FileState = iota
	FileUnknown
	FileAdded
	FileCopied
	FileDeleted
	FileModified
	FileRenamed
	FileMissing
	FileUnmerged
)

func (s FileState) String() string {
	switch s {
	case FileUnset:
		return "unset"
	case FileUnknown:
		return "unknown"
	case FileAdded:
		return "added"
	case FileCopied:
		return "copied"
	case FileDeleted:
		return "deleted"
	case FileModified:
		return "modified"
	case FileRenamed:
		return "renamed"
	case FileMissing:
		return "missing"
	case FileUnmerged:
		return "conflicted"
	default:
		return "invalid"
	}
}

// TreeState locates a file relative to the index and working tree.
type TreeState uint8

const (
	TreeUnset TreeState = iota
	TreeUnmodified
	TreeWorking
	TreeStaged
	TreeUntracked
	TreeIgnored
	TreeNotInRepo
)

func (s TreeState) String() string {
	switch s {
	case TreeUnset:
		return "unset"
	case TreeUnmodified:
		return "unmodified"
	case TreeWorking:
		return "working"
	case TreeStaged:
		return "staged"
	case TreeUntracked:
		return "untracked"
	case TreeIgnored:
		return "ignored"
	case TreeNotInRepo:
		return "not-in-repo"
	default:
		return "invalid"
	}
}

// LockState is the git-lfs lock status of a file.
type LockState uint8

const (
	LockUnset LockState = iota
	LockUnknown
	// LockUnlockable marks files whose extension carries no lockable
	// attribute, and every file when the locking workflow is disabled.
	LockUnlockable
	LockNotLocked
	LockLocked
	LockLockedOther
)

func (s LockState) String() string {
	switch s {
	case LockUnset:
		return "unset"
	case LockUnknown:
		return "unknown"
	case LockUnlockable:
		return "unlockable"
	case LockNotLocked:
		return "not locked"
	case LockLocked:
		return "locked"
	case LockLockedOther:
		return "locked by other"
	default:
		return "invalid"
	}
}

// RemoteState reports whether the file is newer on a remote branch.
type RemoteState uint8

const (
	RemoteUnset RemoteState = iota
	RemoteUpToDate
	// RemoteNotAtHead means the current branch's upstream carries a newer
	// version of the file.
	RemoteNotAtHead
	// RemoteNotLatest means some other tracked branch carries a newer
	// version.
	RemoteNotLatest
)

func (s RemoteState) String() string {
	switch s {
	case RemoteUnset:
		return "unset"
	case RemoteUpToDate:
		return "up to date"
	case RemoteNotAtHead:
		return "behind upstream"
	case RemoteNotLatest:
		return "behind branch"
	default:
		return "invalid"
	}
}

// State is the combined version control state of one file. Each field is
// independently Unset when the producing operation had nothing to report;
// the cache merge never downgrades a known field back to Unset.
type State struct {
	File FileState
	Tree TreeState
	Lock LockState
	// LockUser is who holds the lock when Lock is Locked or LockedOther.
	LockUser string
	Remote RemoteState
	// HeadBranch names the branch with the newer version when Remote is
	// NotAtHead or NotLatest.
	HeadBranch string
}

// IsUnknown reports whether the file has never been resolved by a status
// query. Fresh records start in this state.
func (s State) IsUnknown() bool {
	return s.File == FileUnknown && s.Tree == TreeNotInRepo
}

// CanAdd reports whether a mark-for-add may target the file.
func (s State) CanAdd() bool { return s.Tree == TreeUntracked }

func (s State) IsConflicted() bool { return s.File == FileUnmerged }

func (s State) IsAdded() bool { return s.File == FileAdded || s.File == FileCopied }

func (s State) IsDeleted() bool { return s.File == FileDeleted || s.File == FileMissing }

func (s State) IsIgnored() bool { return s.Tree == TreeIgnored }

// IsModified reports a staged or unstaged difference from HEAD.
func (s State) IsModified() bool { return s.Tree == TreeWorking || s.Tree == TreeStaged }

// IsSourceControlled reports whether git tracks the file at all.
func (s State) IsSourceControlled() bool {
	return s.Tree != TreeUntracked && s.Tree != TreeIgnored && s.Tree != TreeNotInRepo
}

// IsCurrent reports whether no tracked remote branch has a newer version.
func (s State) IsCurrent() bool {
	return s.Remote != RemoteNotAtHead && s.Remote != RemoteNotLatest
}

// IsCheckedOut reports whether the local identity holds the lfs lock.
func (s State) IsCheckedOut() bool { return s.Lock == LockLocked }

func (s State) IsCheckedOutOther() bool { return s.Lock == LockLockedOther }

// CanCheckout reports whether a lock may be taken: the file must be
// lockable, unlocked, and current.
func (s State) CanCheckout() bool {
	if s.Lock == LockUnlockable {
		return false
	}
	return s.Lock == LockNotLocked && s.IsCurrent()
}

// CanCheckin reports whether the file may be committed: additions always,
// otherwise modified or locked files that are current and not conflicted.
func (s State) CanCheckin() bool {
	if s.IsAdded() {
		return true
	}
	if !s.IsCurrent() || s.IsConflicted() {
		return false
	}
	return s.IsModified() || s.Lock == LockLocked
}

// CanRevert reports whether there is anything to undo for the file.
func (s State) CanRevert() bool { return s.CanCheckin() || s.IsModified() }

// Changelist names. Staged holds files whose changes sit in the index,
// Working those with unstaged edits.
const (
	ChangelistStaged  = "Staged"
	ChangelistWorking = "Working"
)

// ResolveInfo carries the merge metadata of a conflicted file: the common
// ancestor blob and the incoming branch blob.
type ResolveInfo struct {
	BaseFile       string
	BaseRevision   string
	RemoteFile     string
	RemoteRevision string
}

// IsValid reports whether conflict stages were actually recorded.
func (r ResolveInfo) IsValid() bool { return r.BaseRevision != "" && r.RemoteRevision != "" }

// Record is the cached state of one path. Records are created lazily on
// first query and updated in place by cache merges.
type Record struct {
	Path       string
	State      State
	History    []*Revision
	Changelist string
	// Timestamp is when a merge last touched the record. It stays zero
	// when the locking workflow is off; the editor-side modified check
	// only applies under locking.
	Timestamp time.Time
	Resolve   ResolveInfo
}

// NewRecord returns a record in the initial "never queried" state.
func NewRecord(path string) *Record {
	return &Record{
		Path: path,
		State: State{
			File:   FileUnknown,
			Tree:   TreeNotInRepo,
			Lock:   LockUnknown,
			Remote: RemoteUpToDate,
		},
	}
}
