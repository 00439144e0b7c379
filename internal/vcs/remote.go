package vcs

import (
	"path/filepath"
	"strings"
)

// checkRemote runs the divergence pass: for every tracked status branch
// (plus the current upstream) it asks which files under the content roots
// are newer there than locally, then annotates the matching states.
//
// The current upstream always wins a tie: being behind one's own remote is
// the actionable condition, independent of branch scan order.
func (r *Reconciler) checkRemote(states map[string]*PathStatus, msgs *Messages) {
	branches := make([]string, 0, len(r.StatusBranches)+1)
	seen := map[string]struct{}{}
	if r.Upstream != "" {
		branches = append(branches, r.Upstream)
		seen[r.Upstream] = struct{}{}
	}
	for _, b := range r.StatusBranches {
		if _, dup := seen[b]; !dup {
			branches = append(branches, b)
			seen[b] = struct{}{}
		}
	}
	if len(branches) == 0 {
		return
	}

	root := r.Helpers.RepoRoot()
	diffScope := append(append([]string{}, r.DivergenceRoots...), r.RestartWatch...)

	// newer maps absolute path -> the branch carrying the newer version.
	newer := map[string]string{}
	for _, branch := range branches {
		current := r.Upstream != "" && branch == r.Upstream
		lines, ok := r.Helpers.Log([]string{"--pretty=", "--name-only", ".." + branch}, diffScope, msgs)
		if !ok {
			continue
		}
		for _, rel := range lines {
			abs := filepath.Join(root, filepath.FromSlash(rel))
			if !r.Lockables.IsLockable(abs) {
				if current && r.matchesRestartWatch(rel) && r.OnPendingRestart != nil {
					r.OnPendingRestart()
				}
				continue
			}
			if _, taken := newer[abs]; current || !taken {
				newer[abs] = branch
			}
		}
	}

	// Every reconciled file gets an explicit remote verdict: a file that
	// caught up must shed its stale behind-branch mark in the cache merge.
	for abs, ps := range states {
		branch, behind := newer[abs]
		switch {
		case !behind:
			ps.State.Remote = RemoteUpToDate
		case r.Upstream != "" && branch == r.Upstream:
			ps.State.Remote = RemoteNotAtHead
			ps.State.HeadBranch = branch
		default:
			ps.State.Remote = RemoteNotLatest
			ps.State.HeadBranch = branch
		}
	}
}

func (r *Reconciler) matchesRestartWatch(rel string) bool {
	lower := strings.ToLower(filepath.ToSlash(rel))
	for _, watch := range r.RestartWatch {
		w := strings.ToLower(filepath.ToSlash(watch))
		if lower == w || strings.HasPrefix(lower, strings.TrimSuffix(w, "/")+"/") {
			return true
		}
	}
	return false
}
