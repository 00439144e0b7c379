package vcs

import (
	"path/filepath"
	"strings"

	"assetbridge/internal/gitcli"
)

// Messages collects the user-facing output of one operation: informational
// lines and error lines, in arrival order.
type Messages struct {
	Info   []string
	Errors []string
}

func (m *Messages) addInfo(lines []string)  { m.Info = append(m.Info, lines...) }
func (m *Messages) addError(lines []string) { m.Errors = append(m.Errors, lines...) }

// Helpers names every git and git-lfs invocation the operation workers
// need, keeping argument plumbing out of the workers themselves.
type Helpers struct {
	run      gitcli.Runner
	gitBin   string
	repoRoot string
}

func NewHelpers(run gitcli.Runner, gitBin, repoRoot string) *Helpers {
	return &Helpers{run: run, gitBin: gitBin, repoRoot: repoRoot}
}

// RepoRoot returns the working copy root the helpers operate on.
func (h *Helpers) RepoRoot() string { return h.repoRoot }

func (h *Helpers) invocation(command string, args, files []string) gitcli.Invocation {
	return gitcli.Invocation{
		Bin:     h.gitBin,
		Dir:     h.repoRoot,
		Command: command,
		Args:    args,
		Files:   files,
	}
}

func (h *Helpers) exec(inv gitcli.Invocation, msgs *Messages) ([]string, bool) {
	res, ok, err := gitcli.Exec(h.run, inv)
	if err != nil {
		if msgs != nil {
			msgs.addError([]string{err.Error()})
		}
		return nil, false
	}
	if msgs != nil {
		msgs.addInfo(res.Stdout)
		msgs.addError(res.Stderr)
	}
	return res.Stdout, ok
}

// StatusNoLocks runs "status --porcelain" without taking the optional index
// locks, so background refreshes never block a concurrent git operation.
// Stdout is porcelain data, not user messaging, so only failures feed msgs:
// the spawn error or the tool's stderr.
func (h *Helpers) StatusNoLocks(all bool, files []string, msgs *Messages) ([]string, bool) {
	inv := h.invocation("status", []string{"--porcelain"}, files)
	inv.GlobalArgs = []string{"--no-optional-locks"}
	if all {
		inv.Args = append(inv.Args, "-uall")
	}
	res, ok, err := gitcli.Exec(h.run, inv)
	if err != nil {
		if msgs != nil {
			msgs.addError([]string{err.Error()})
		}
		return nil, false
	}
	if !ok && msgs != nil {
		msgs.addError(res.Stderr)
	}
	return res.Stdout, ok
}

func (h *Helpers) Log(args, files []string, msgs *Messages) ([]string, bool) {
	return h.exec(h.invocation("log", args, files), nil)
}

// LSFiles lists index entries under path; with unmerged it lists conflict
// stage entries instead.
func (h *Helpers) LSFiles(unmerged bool, path string, msgs *Messages) ([]string, bool) {
	var args []string
	if unmerged {
		args = []string{"--unmerged"}
	}
	return h.exec(h.invocation("ls-files", args, []string{path}), msgs)
}

func (h *Helpers) LSTree(revision, file string, msgs *Messages) ([]string, bool) {
	return h.exec(h.invocation("ls-tree", []string{"--long", revision}, []string{file}), msgs)
}

// QueryLocks implements LocksQuerier over "git lfs locks". A non-empty
// user keeps only that owner's locks.
func (h *Helpers) QueryLocks(extraArgs []string, user string) (map[string]string, []string, bool) {
	inv := gitcli.LFSInvocation(h.invocation("locks", extraArgs, nil))
	var msgs Messages
	lines, ok := h.exec(inv, &msgs)
	if !ok {
		return nil, msgs.Errors, false
	}
	locks := map[string]string{}
	for _, line := range lines {
		path, owner, parsed := ParseLockLine(h.repoRoot, line, user)
		if !parsed {
			continue
		}
		if user != "" && owner != user {
			continue
		}
		locks[path] = owner
	}
	return locks, msgs.Errors, true
}

func (h *Helpers) LockFiles(relFiles []string, msgs *Messages) bool {
	inv := gitcli.LFSInvocation(h.invocation("lock", nil, relFiles))
	_, ok := h.exec(inv, msgs)
	return ok
}

func (h *Helpers) UnlockFiles(relFiles []string, msgs *Messages) bool {
	inv := gitcli.LFSInvocation(h.invocation("unlock", nil, relFiles))
	_, ok := h.exec(inv, msgs)
	return ok
}

func (h *Helpers) Add(files []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("add", nil, files), msgs)
	return ok
}

// Commit commits the given paths with the message stored in msgFile.
// Routing the message through a file sidesteps quoting and length limits.
func (h *Helpers) Commit(msgFile string, files []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("commit", []string{"--file", msgFile}, files), msgs)
	return ok
}

func (h *Helpers) Push(args []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("push", args, nil), msgs)
	return ok
}

// DiffNameOnly returns the paths differing across the given range.
func (h *Helpers) DiffNameOnly(rangeSpec string, msgs *Messages) ([]string, bool) {
	return h.exec(h.invocation("diff", []string{"--name-only", rangeSpec}, nil), msgs)
}

func (h *Helpers) Fetch(msgs *Messages) bool {
	_, ok := h.exec(h.invocation("fetch", []string{"origin", "--no-tags", "--prune"}, nil), msgs)
	return ok
}

// Pull rebases local work onto the upstream, stashing dirty files around
// the rebase.
func (h *Helpers) Pull(msgs *Messages) bool {
	_, ok := h.exec(h.invocation("pull", []string{"--rebase", "--autostash"}, nil), msgs)
	return ok
}

func (h *Helpers) Reset(hard bool, msgs *Messages) bool {
	var args []string
	if hard {
		args = []string{"--hard"}
	}
	_, ok := h.exec(h.invocation("reset", args, nil), msgs)
	return ok
}

// Clean removes untracked files and directories.
func (h *Helpers) Clean(msgs *Messages) bool {
	_, ok := h.exec(h.invocation("clean", []string{"-f", "-d"}, nil), msgs)
	return ok
}

func (h *Helpers) CheckoutPaths(files []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("checkout", nil, files), msgs)
	return ok
}

// RestoreStaged moves staged changes back to the working tree.
func (h *Helpers) RestoreStaged(files []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("restore", []string{"--staged"}, files), msgs)
	return ok
}

func (h *Helpers) RemovePaths(files []string, msgs *Messages) bool {
	_, ok := h.exec(h.invocation("rm", nil, files), msgs)
	return ok
}

// CheckAttrLockable queries the lockable attribute for each candidate
// pattern.
func (h *Helpers) CheckAttrLockable(patterns []string, msgs *Messages) ([]string, bool) {
	return h.exec(h.invocation("check-attr", []string{"lockable"}, patterns), msgs)
}

func (h *Helpers) ConfigValue(key string) string {
	lines, ok := h.exec(h.invocation("config", []string{"--get", key}, nil), nil)
	if !ok || len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

// BranchName returns the current branch, or a detached-head description
// with ok=false.
func (h *Helpers) BranchName() (string, bool) {
	lines, ok := h.exec(h.invocation("symbolic-ref", []string{"--short", "-q", "HEAD"}, nil), nil)
	if ok && len(lines) > 0 {
		return lines[0], true
	}
	lines, ok = h.exec(h.invocation("log", []string{"-1", "--format=%h"}, nil), nil)
	if ok && len(lines) > 0 {
		return "HEAD detached at " + lines[0], false
	}
	return "", false
}

// UpstreamBranch returns the remote tracking branch of HEAD, e.g.
// "origin/main".
func (h *Helpers) UpstreamBranch() (string, bool) {
	lines, ok := h.exec(h.invocation("rev-parse", []string{"--abbrev-ref", "--symbolic-full-name", "@{u}"}, nil), nil)
	if !ok || len(lines) == 0 {
		return "", false
	}
	return lines[0], true
}

func (h *Helpers) RemoteURL() (string, bool) {
	lines, ok := h.exec(h.invocation("remote", []string{"get-url", "origin"}, nil), nil)
	if !ok || len(lines) == 0 {
		return "", false
	}
	return lines[0], true
}

// RemoteBranches expands a wildcard pattern against the remote tracking
// refs, e.g. "origin/release/*".
func (h *Helpers) RemoteBranches(pattern string) ([]string, bool) {
	lines, ok := h.exec(h.invocation("branch", []string{"--remotes", "--list", pattern}, nil), nil)
	if !ok {
		return nil, false
	}
	var branches []string
	for _, line := range lines {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "* "))
		if name == "" || strings.Contains(name, "->") {
			continue
		}
		branches = append(branches, name)
	}
	return branches, true
}

// CommitInfo returns the hash and summary line of HEAD.
func (h *Helpers) CommitInfo() (id, summary string, ok bool) {
	lines, ok := h.exec(h.invocation("log", []string{"-1", "--format=%H %s"}, nil), nil)
	if !ok || len(lines) == 0 {
		return "", "", false
	}
	id, summary, _ = strings.Cut(lines[0], " ")
	return id, summary, true
}

// ShowBlob returns the content lines of a blob by hash.
func (h *Helpers) ShowBlob(sha string, msgs *Messages) ([]string, bool) {
	return h.exec(h.invocation("cat-file", []string{"-p", sha}, nil), msgs)
}

// ProbeRemote checks the remote is reachable and the repository
// initialized.
func (h *Helpers) ProbeRemote(msgs *Messages) bool {
	_, ok := h.exec(h.invocation("ls-remote", []string{"-q", "-h", "origin"}, nil), msgs)
	return ok
}

// FileHistory returns the revision log of one file, newest first. With
// mergeConflict it returns only the tip of the incoming branch, which is
// what a conflict viewer needs as "their" revision.
func (h *Helpers) FileHistory(file string, mergeConflict bool, msgs *Messages) ([]*Revision, bool) {
	args := []string{"--follow", "--date=raw", "--name-status", "--pretty=medium"}
	if mergeConflict {
		args = append(args, "MERGE_HEAD", "--max-count", "1")
	} else {
		args = append(args, "--max-count", "250")
	}
	lines, ok := h.Log(args, []string{file}, msgs)
	if !ok {
		return nil, false
	}
	history := ParseLog(lines)
	for _, rev := range history {
		blobLines, blobOK := h.LSTree(rev.CommitID, rev.Filename, msgs)
		if !blobOK {
			ok = false
			continue
		}
		rev.FileHash, rev.FileSize = ParseLSTree(blobLines)
	}
	return history, ok
}

// AbsolutePaths maps repository-relative paths onto absolute ones.
func AbsolutePaths(root string, rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		out = append(out, filepath.Join(root, filepath.FromSlash(rel)))
	}
	return out
}

// RelativePaths maps absolute paths onto repository-relative slash-form
// ones, skipping paths outside the root.
func RelativePaths(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
