package provider

import (
	"os"
	"time"

	"assetbridge/internal/vcs"
)

const (
	checkoutRetries    = 10
	checkoutRetryDelay = 100 * time.Millisecond
)

// runRevert discards local changes. With no explicit targets the whole
// working copy is reset; otherwise the targets are partitioned by what git
// needs: rm for tracked files gone from disk, unstage for additions, and
// checkout for modified content.
func runRevert(p *Provider, cmd *Command) bool {
	h := p.helpers()

	if len(cmd.Files) == 0 {
		ok := h.Reset(true, &cmd.Result)
		ok = h.Clean(&cmd.Result) && ok
		runStatusPass(p, cmd, h, p.contentRootPaths())
		return ok
	}

	var missing, added, modified []string
	for _, rec := range p.cache.Snapshot(cmd.Files) {
		st := rec.State
		_, statErr := os.Stat(rec.Path)
		onDisk := statErr == nil
		switch {
		case !onDisk && st.IsSourceControlled() && !st.IsDeleted():
			missing = append(missing, rec.Path)
		case st.IsAdded():
			added = append(added, rec.Path)
		case st.CanRevert():
			modified = append(modified, rec.Path)
		}
	}

	ok := true
	if len(missing) > 0 {
		ok = h.RemovePaths(missing, &cmd.Result) && ok
	}
	if len(added) > 0 {
		// Un-staging an addition leaves the file untracked on disk, which
		// is what "revert an add" means here.
		ok = h.RestoreStaged(vcs.RelativePaths(cmd.RepoRoot, added), &cmd.Result) && ok
	}
	if len(modified) > 0 {
		ok = checkoutWithRetry(p, cmd, h, modified) && ok
	}

	if cmd.LockingEnabled && ok {
		releaseOwnLocks(p, cmd, h, modified)
	}

	runStatusPass(p, cmd, h, cmd.Files)
	return ok
}

// checkoutWithRetry restores file content from HEAD, retrying briefly: the
// editor may still hold handles on the files it was just asked to release.
func checkoutWithRetry(p *Provider, cmd *Command, h *vcs.Helpers, files []string) bool {
	handles := p.reloader.Unlink(files)
	defer func() {
		if len(handles) > 0 {
			p.reloader.Reload(handles)
		}
	}()

	for attempt := 0; attempt < checkoutRetries; attempt++ {
		if h.CheckoutPaths(files, &cmd.Result) {
			return true
		}
		time.Sleep(checkoutRetryDelay)
	}
	return false
}
