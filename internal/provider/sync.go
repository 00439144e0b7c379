package provider

import (
	"assetbridge/internal/vcs"
)

// runSync brings the working copy up to date: fetch, rebase-pull with the
// editor's packages detached around the rewrite, then a status sweep.
func runSync(p *Provider, cmd *Command) bool {
	h := p.helpers()

	if cmd.LockingEnabled {
		_, errs := p.locks.GetAll(true)
		cmd.Result.Errors = append(cmd.Result.Errors, errs...)
	}

	ok := h.Fetch(&cmd.Result)
	var pulled []string
	ok = ok && pullOrigin(p, cmd, h, nil, &pulled)
	if ok {
		if id, summary, infoOK := h.CommitInfo(); infoOK {
			cmd.CommitID, cmd.CommitSummary = id, summary
		}
	}

	sweep := cmd.Files
	if len(sweep) == 0 {
		sweep = append(p.contentRootPaths(), pulled...)
	}
	runStatusPass(p, cmd, h, sweep)
	return ok
}

// pullOrigin rebases local work onto the upstream. Files the pull will
// rewrite are unlinked from the editor first and reloaded after; paths in
// alreadyReloaded are skipped. Pulled file paths are appended to
// outPulled. Refuses to run while a restart is pending: rewriting stale
// binaries under a running editor corrupts its state.
func pullOrigin(p *Provider, cmd *Command, h *vcs.Helpers, alreadyReloaded []string, outPulled *[]string) bool {
	if p.pendingRestart.Load() {
		cmd.addError("editor binaries are out of date; restart before syncing")
		return false
	}

	var incoming []string
	if upstream, hasUpstream := h.UpstreamBranch(); hasUpstream {
		if rels, ok := h.DiffNameOnly(upstream, &cmd.Result); ok {
			skip := map[string]struct{}{}
			for _, f := range alreadyReloaded {
				skip[f] = struct{}{}
			}
			for _, abs := range vcs.AbsolutePaths(cmd.RepoRoot, rels) {
				if _, done := skip[abs]; !done {
					incoming = append(incoming, abs)
				}
			}
		}
	}

	var handles []string
	if len(incoming) > 0 {
		handles = p.reloader.Unlink(incoming)
	}
	ok := h.Pull(&cmd.Result)
	if len(handles) > 0 {
		p.reloader.Reload(handles)
	}
	if ok && outPulled != nil {
		*outPulled = append(*outPulled, incoming...)
	}
	return ok
}
