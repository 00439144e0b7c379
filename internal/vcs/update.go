package vcs

import (
	"os"
	"path/filepath"
	"strings"
)

// PathStatus is the reconciled state of one path, plus conflict metadata
// when the file is unmerged.
type PathStatus struct {
	State   State
	Resolve ResolveInfo
}

// Reconciler runs the status pipeline: query git, parse the porcelain
// output, annotate lock and remote divergence state, and emit per-path
// states ready for the cache merge.
type Reconciler struct {
	Helpers   *Helpers
	Locks     *LockCache
	Lockables *LockableSet

	LockingEnabled bool
	LockUser       string

	// StatusBranches are fully expanded remote branch names checked for
	// divergence, e.g. "origin/main".
	StatusBranches []string
	// Upstream is the current branch's remote tracking branch, empty when
	// there is none.
	Upstream string
	// DivergenceRoots limits the divergence log-diff to the content
	// directories the editor cares about.
	DivergenceRoots []string
	// RestartWatch lists repo-relative prefixes (and exact names) whose
	// upstream changes mean the running editor binary is stale.
	RestartWatch []string
	// OnPendingRestart fires when a restart-watch path is newer on the
	// upstream.
	OnPendingRestart func()

	// Disk probes, injectable for tests.
	Exists func(path string) bool
	IsDir  func(path string) bool
}

func (r *Reconciler) exists(path string) bool {
	if r.Exists != nil {
		return r.Exists(path)
	}
	_, err := os.Stat(path)
	return err == nil
}

func (r *Reconciler) isDir(path string) bool {
	if r.IsDir != nil {
		return r.IsDir(path)
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// UpdateStatus reconciles the given absolute paths. Paths outside the
// repository are dropped; directories expand to their tracked members.
// Returns per-path statuses, accumulated error lines, and whether the
// underlying status query succeeded.
func (r *Reconciler) UpdateStatus(paths []string) (map[string]*PathStatus, []string, bool) {
	root := r.Helpers.RepoRoot()
	// A bare prefix check would admit siblings like root+"2"; require the
	// separator boundary.
	rootPrefix := root + string(filepath.Separator)
	var repoPaths []string
	for _, p := range paths {
		if p == root || strings.HasPrefix(p, rootPrefix) {
			repoPaths = append(repoPaths, p)
		}
	}
	if len(repoPaths) == 0 {
		return nil, nil, false
	}

	var msgs Messages
	lines, ok := r.Helpers.StatusNoLocks(true, repoPaths, &msgs)

	// Index status lines by the absolute path they refer to.
	results := map[string]string{}
	for _, line := range lines {
		rel := FilenameFromStatus(line)
		if rel == "" {
			continue
		}
		results[filepath.Join(root, filepath.FromSlash(rel))] = line
	}

	states := map[string]*PathStatus{}
	if ok {
		r.resolveFiles(repoPaths, results, states, &msgs)
		r.scanLeftovers(results, states)
	}
	r.checkRemote(states, &msgs)
	return states, msgs.Errors, ok
}

// resolveFiles produces a state for every explicitly requested path,
// expanding directories through the index. Consumed status lines are
// removed from results so the leftover scan only sees unrequested paths.
func (r *Reconciler) resolveFiles(paths []string, results map[string]string, states map[string]*PathStatus, msgs *Messages) {
	root := r.Helpers.RepoRoot()

	files := map[string]struct{}{}
	for _, p := range paths {
		if r.isDir(p) {
			if members, ok := r.Helpers.LSFiles(false, p, msgs); ok {
				for _, abs := range AbsolutePaths(root, members) {
					files[abs] = struct{}{}
				}
			}
			continue
		}
		files[p] = struct{}{}
	}

	// The lock table is fetched at most once per batch, and only when a
	// lockable file actually shows up.
	var locks map[string]string
	locksFetched := false
	lookupLock := func() map[string]string {
		if !locksFetched {
			locksFetched = true
			var lockErrs []string
			locks, lockErrs = r.Locks.GetAll(false)
			msgs.addError(lockErrs)
		}
		return locks
	}

	for file := range files {
		ps := &PathStatus{}
		if line, found := results[file]; found {
			delete(results, file)
			ps.State.File, ps.State.Tree = ParseStatusLine(line)
			if ps.State.IsConflicted() {
				if stageLines, ok := r.Helpers.LSFiles(true, file, msgs); ok {
					if info, valid := ParseUnmergedStages(stageLines); valid {
						ps.Resolve = info
					}
				}
			}
		} else {
			ps.State.File = FileUnknown
			if r.exists(file) {
				ps.State.Tree = TreeUnmodified
			} else {
				ps.State.Tree = TreeNotInRepo
			}
		}
		r.annotateLock(file, &ps.State, lookupLock)
		states[file] = ps
	}
}

func (r *Reconciler) annotateLock(file string, st *State, lookupLock func() map[string]string) {
	if !r.LockingEnabled {
		st.Lock = LockUnlockable
		return
	}
	if !r.Lockables.IsLockable(file) {
		st.Lock = LockUnlockable
		return
	}
	if owner, locked := lookupLock()[file]; locked {
		st.LockUser = owner
		if owner == r.LockUser {
			st.Lock = LockLocked
		} else {
			st.Lock = LockLockedOther
		}
		return
	}
	st.Lock = LockNotLocked
}

// scanLeftovers walks the status lines nothing asked about. Deleted,
// missing, and untracked files matter even unrequested: index listings
// cannot report files that are gone from disk, and the editor wants to
// learn about strays.
func (r *Reconciler) scanLeftovers(results map[string]string, states map[string]*PathStatus) {
	for file, line := range results {
		fileState, treeState := ParseStatusLine(line)
		if fileState != FileDeleted && fileState != FileMissing && treeState != TreeUntracked {
			continue
		}
		ps := &PathStatus{State: State{File: fileState, Tree: treeState}}
		if !r.LockingEnabled {
			ps.State.Lock = LockUnlockable
		}
		states[file] = ps
	}
}
