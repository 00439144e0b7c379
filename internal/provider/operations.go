package provider

import (
	"assetbridge/internal/vcs"
)

// workerFunc is the body of one operation kind, run on the worker pool.
// It returns whether the operation succeeded; messages and state deltas
// accumulate on the command.
type workerFunc func(p *Provider, cmd *Command) bool

// operationWorkers builds the dispatch table once per provider.
func operationWorkers() map[Operation]workerFunc {
	return map[Operation]workerFunc{
		OpConnect:          runConnect,
		OpUpdateStatus:     runUpdateStatus,
		OpCheckOut:         runCheckOut,
		OpCheckIn:          runCheckIn,
		OpMarkForAdd:       runMarkForAdd,
		OpCopy:             runCopy,
		OpDelete:           runDelete,
		OpRevert:           runRevert,
		OpSync:             runSync,
		OpFetch:            runFetch,
		OpResolve:          runResolve,
		OpMoveToChangelist: runMoveToChangelist,
	}
}

func collectStates(cmd *Command, files []string, st vcs.State) {
	for _, f := range files {
		cmd.addDelta(f, st)
	}
}

func runConnect(p *Provider, cmd *Command) bool {
	h := p.helpers()
	if !h.ProbeRemote(&cmd.Result) {
		cmd.addError("remote unreachable or repository not initialized")
		return false
	}
	return true
}

func runMarkForAdd(p *Provider, cmd *Command) bool {
	h := p.helpers()
	if h.Add(cmd.Files, &cmd.Result) {
		collectStates(cmd, cmd.Files, vcs.State{File: vcs.FileAdded, Tree: vcs.TreeStaged})
		return true
	}
	// The add failed somewhere; re-query so the cache reflects reality.
	runStatusPass(p, cmd, h, cmd.Files)
	return false
}

// runCopy stages the destination files of an editor-side copy or the
// redirector left behind by a move. Git has no copy verb, so this is an
// add; the files land in the cache as copies.
func runCopy(p *Provider, cmd *Command) bool {
	h := p.helpers()
	if h.Add(cmd.Files, &cmd.Result) {
		collectStates(cmd, cmd.Files, vcs.State{File: vcs.FileCopied, Tree: vcs.TreeStaged})
		return true
	}
	runStatusPass(p, cmd, h, cmd.Files)
	return false
}

func runDelete(p *Provider, cmd *Command) bool {
	h := p.helpers()
	if h.RemovePaths(cmd.Files, &cmd.Result) {
		collectStates(cmd, cmd.Files, vcs.State{File: vcs.FileDeleted, Tree: vcs.TreeStaged})
		return true
	}
	runStatusPass(p, cmd, h, cmd.Files)
	return false
}

// runResolve marks conflicted files resolved, which for git is simply
// staging the merged content.
func runResolve(p *Provider, cmd *Command) bool {
	h := p.helpers()
	ok := h.Add(cmd.Files, &cmd.Result)
	runStatusPass(p, cmd, h, cmd.Files)
	return ok
}

// runMoveToChangelist shuffles files between the two pseudo-changelists:
// staging for "Staged", unstaging for "Working".
func runMoveToChangelist(p *Provider, cmd *Command) bool {
	h := p.helpers()
	var ok bool
	switch cmd.TargetChangelist {
	case vcs.ChangelistStaged:
		ok = h.Add(cmd.Files, &cmd.Result)
	case vcs.ChangelistWorking:
		ok = h.RestoreStaged(vcs.RelativePaths(cmd.RepoRoot, cmd.Files), &cmd.Result)
	default:
		cmd.addError("unknown changelist: " + cmd.TargetChangelist)
		return false
	}
	runStatusPass(p, cmd, h, cmd.Files)
	return ok
}

// runCheckOut takes lfs locks on the lockable subset of the targets.
func runCheckOut(p *Provider, cmd *Command) bool {
	if !cmd.LockingEnabled {
		cmd.addError("checkout requires the lfs locking workflow")
		return false
	}
	h := p.helpers()

	var lockable []string
	for _, f := range cmd.Files {
		if p.lockables.IsLockable(f) {
			lockable = append(lockable, f)
		}
	}
	if len(lockable) == 0 {
		cmd.addError("none of the selected files are lockable")
		return false
	}

	if !h.LockFiles(vcs.RelativePaths(cmd.RepoRoot, lockable), &cmd.Result) {
		runStatusPass(p, cmd, h, cmd.Files)
		return false
	}
	for _, f := range lockable {
		p.locks.Add(f, cmd.LockUser)
	}
	collectStates(cmd, lockable, vcs.State{Lock: vcs.LockLocked, LockUser: cmd.LockUser})
	return true
}

// runFetch refreshes remote refs (and the lock table under locking), then
// optionally sweeps status over the content roots.
func runFetch(p *Provider, cmd *Command) bool {
	h := p.helpers()
	if cmd.LockingEnabled {
		_, errs := p.locks.GetAll(true)
		cmd.Result.Errors = append(cmd.Result.Errors, errs...)
	}
	ok := h.Fetch(&cmd.Result)
	if cmd.UpdateStatusAfterFetch {
		ok = runStatusPass(p, cmd, h, p.contentRootPaths()) && ok
	}
	cmd.ReclassifyBenignErrors("outside repository")
	return ok
}

// runUpdateStatus reconciles the requested files (or the content roots when
// none are given), optionally enriching records with per-file history.
func runUpdateStatus(p *Provider, cmd *Command) bool {
	h := p.helpers()

	if len(cmd.Files) == 0 {
		ok := runStatusPass(p, cmd, h, p.contentRootPaths())
		if id, summary, infoOK := h.CommitInfo(); infoOK {
			cmd.CommitID, cmd.CommitSummary = id, summary
		}
		return ok
	}

	files := cmd.Files
	if cmd.Forced {
		// Paths merged since the last forced pass were just queried; a
		// forced re-check right behind that merge only repeats work.
		files = files[:0:0]
		for _, f := range cmd.Files {
			if !p.cache.ConsumeIgnoreForced(f) {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			return true
		}
	}

	ok := runStatusPass(p, cmd, h, files)
	if ok && cmd.UpdateHistory {
		for _, file := range files {
			conflicted := cmd.deltas[file].IsConflicted()
			history, histOK := h.FileHistory(file, conflicted, &cmd.Result)
			if histOK {
				cmd.histories[file] = history
			} else {
				ok = false
			}
		}
		cmd.ReclassifyBenignErrors("outside repository")
	}
	return ok
}
