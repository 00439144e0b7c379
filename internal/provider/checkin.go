package provider

import (
	"log/slog"
	"os"
	"strings"

	"assetbridge/internal/vcs"
)

// runCheckIn commits the target files and pushes the branch. A rejected
// push is recovered once: fetch, rebase-pull, push again. On success any
// lfs locks held on the committed files are released and deleted records
// are evicted from the cache.
func runCheckIn(p *Provider, cmd *Command) bool {
	h := p.helpers()

	committed := len(cmd.Files) > 0
	if committed {
		committed = commitFiles(cmd, h)
	}
	if committed {
		for _, rec := range p.cache.Snapshot(cmd.Files) {
			if rec.State.IsDeleted() {
				cmd.evict = append(cmd.evict, rec.Path)
			}
		}
		if id, summary, ok := h.CommitInfo(); ok {
			cmd.CommitID, cmd.CommitSummary = id, summary
			slog.Info("commit created",
				slog.String("id", id),
				slog.String("summary", summary))
		}
	} else if len(cmd.Files) > 0 {
		// Nothing was committed; report state and bail.
		runStatusPass(p, cmd, h, cmd.Files)
		return false
	}

	// Everything committed locally but not yet pushed rides along on this
	// push, not just this command's files.
	unpushed, affected := collectUnpushed(cmd, h)

	success := true
	var pulled []string
	if unpushed {
		success = h.Push([]string{"-u", "origin", "HEAD"}, &cmd.Result)
		if !success && isOutOfDatePush(cmd.Result.Errors) {
			slog.Info("push rejected, attempting fetch + rebase recovery")
			if h.Fetch(&cmd.Result) && pullOrigin(p, cmd, h, nil, &pulled) {
				success = h.Push([]string{"-u", "origin", "HEAD"}, &cmd.Result)
			}
			if !success {
				cmd.addError("push rejected: the remote has new commits; sync and resolve before checking in again")
			}
		}
	}

	if cmd.LockingEnabled && success {
		releaseOwnLocks(p, cmd, h, affected)
	}

	sweep := append(append([]string{}, affected...), pulled...)
	if len(sweep) == 0 {
		sweep = cmd.Files
	}
	runStatusPass(p, cmd, h, sweep)
	return success
}

// commitFiles stages the targets and commits them with the message routed
// through a temp file.
func commitFiles(cmd *Command, h *vcs.Helpers) bool {
	if !h.Add(cmd.Files, &cmd.Result) {
		return false
	}
	message := cmd.Message
	if message == "" {
		message = "Update assets"
	}
	msgFile, err := os.CreateTemp("", "checkin-*.txt")
	if err != nil {
		cmd.addError("create commit message file: " + err.Error())
		return false
	}
	defer os.Remove(msgFile.Name())
	if _, err := msgFile.WriteString(message); err != nil {
		msgFile.Close()
		cmd.addError("write commit message file: " + err.Error())
		return false
	}
	msgFile.Close()
	return h.Commit(msgFile.Name(), cmd.Files, &cmd.Result)
}

// collectUnpushed reports whether local commits await a push and which
// files they touch (the command's own targets plus everything already
// committed but unpushed).
func collectUnpushed(cmd *Command, h *vcs.Helpers) (bool, []string) {
	affected := map[string]struct{}{}
	for _, f := range cmd.Files {
		affected[f] = struct{}{}
	}

	var committedRels []string
	var ok bool
	if upstream, hasUpstream := h.UpstreamBranch(); hasUpstream {
		committedRels, ok = h.DiffNameOnly(upstream+"...HEAD", &cmd.Result)
	} else {
		// No upstream yet: every commit unknown to any remote is unpushed.
		committedRels, ok = h.Log([]string{"--branches", "--not", "--remotes", "--name-only", "--pretty="}, nil, &cmd.Result)
	}
	if !ok {
		// Assume there is something to push rather than silently skipping.
		return true, keys(affected)
	}
	for _, abs := range vcs.AbsolutePaths(cmd.RepoRoot, committedRels) {
		affected[abs] = struct{}{}
	}
	return len(committedRels) > 0 || len(cmd.Files) > 0, keys(affected)
}

func releaseOwnLocks(p *Provider, cmd *Command, h *vcs.Helpers, files []string) {
	var owned []string
	for _, rec := range p.cache.Snapshot(files) {
		if rec.State.Lock == vcs.LockLocked {
			owned = append(owned, rec.Path)
		}
	}
	if len(owned) == 0 {
		return
	}
	if h.UnlockFiles(vcs.RelativePaths(cmd.RepoRoot, owned), &cmd.Result) {
		for _, f := range owned {
			p.locks.Remove(f)
		}
	}
}

// isOutOfDatePush recognizes the push failures that mean "the remote moved
// on": non-fast-forward rejections and ref lock contention.
func isOutOfDatePush(errs []string) bool {
	for _, line := range errs {
		if strings.Contains(line, "[rejected]") &&
			(strings.Contains(line, "non-fast-forward") || strings.Contains(line, "fetch first")) {
			return true
		}
		if strings.Contains(line, "cannot lock ref") {
			return true
		}
	}
	return false
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
