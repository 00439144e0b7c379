package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetbridge/internal/gitcli"
	"assetbridge/internal/vcs"
)

func hasArg(inv gitcli.Invocation, want string) bool {
	for _, a := range inv.Args {
		if a == want {
			return true
		}
	}
	return false
}

func TestCheckOutLocksLockableFiles(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpCheckOut, []string{
		"/repo/Content/Map.umap",
		"/repo/Config/Game.ini", // not lockable, silently skipped
	})
	status := p.ExecuteSync(cmd)
	require.Equal(t, StatusSucceeded, status)

	rec := p.States([]string{"/repo/Content/Map.umap"})[0]
	assert.Equal(t, vcs.LockLocked, rec.State.Lock)
	assert.Equal(t, "alice", rec.State.LockUser)

	plain := p.States([]string{"/repo/Config/Game.ini"})[0]
	assert.NotEqual(t, vcs.LockLocked, plain.State.Lock)

	locked := false
	for _, call := range git.calls {
		if call.Command == "lfs" && len(call.Args) > 0 && call.Args[0] == "lock" {
			locked = true
			assert.Equal(t, []string{"Content/Map.umap"}, call.Files)
		}
	}
	assert.True(t, locked, "expected an lfs lock invocation")
}

func TestCheckOutRequiresLocking(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpCheckOut, []string{"/repo/Content/Map.umap"})
	cmd.LockingEnabled = false
	status := p.ExecuteSync(cmd)
	assert.Equal(t, StatusFailed, status)
	assert.Empty(t, git.calls)
}

func TestCheckInRecoversFromRejectedPush(t *testing.T) {
	t.Parallel()

	pushes := 0
	fetches := 0
	pulls := 0
	git := &fakeGit{}
	git.respond = func(inv gitcli.Invocation) gitcli.Result {
		switch inv.Command {
		case "push":
			pushes++
			if pushes == 1 {
				return gitcli.Result{Code: 1, Stderr: []string{
					"! [rejected]        main -> main (non-fast-forward)",
					"error: failed to push some refs to 'origin'",
				}}
			}
			return gitcli.Result{Stdout: []string{"To origin"}}
		case "fetch":
			fetches++
			return gitcli.Result{}
		case "pull":
			pulls++
			return gitcli.Result{Stdout: []string{"Successfully rebased and updated refs/heads/main."}}
		case "rev-parse":
			return gitcli.Result{Stdout: []string{"origin/main"}}
		case "diff":
			if hasArg(inv, "origin/main...HEAD") {
				return gitcli.Result{Stdout: []string{"Content/A.uasset"}}
			}
			return gitcli.Result{Stdout: []string{"Content/Incoming.uasset"}}
		case "log":
			if hasArg(inv, "--format=%H %s") {
				return gitcli.Result{Stdout: []string{"abc1234def Fix the lobby map"}}
			}
			return gitcli.Result{}
		default:
			return gitcli.Result{}
		}
	}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpCheckIn, []string{"/repo/Content/A.uasset"})
	cmd.Message = "Fix the lobby map"
	status := p.ExecuteSync(cmd)

	require.Equal(t, StatusSucceeded, status)
	assert.Equal(t, 2, pushes, "rejected push retried exactly once")
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, pulls)
	assert.Equal(t, "abc1234def", cmd.CommitID)
	assert.Equal(t, "Fix the lobby map", cmd.CommitSummary)

	id, summary := p.CommitInfo()
	assert.Equal(t, "abc1234def", id)
	assert.Equal(t, "Fix the lobby map", summary)
}

func TestCheckInGivesUpAfterFailedRetry(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	git.respond = func(inv gitcli.Invocation) gitcli.Result {
		switch inv.Command {
		case "push":
			return gitcli.Result{Code: 1, Stderr: []string{
				"! [rejected]        main -> main (fetch first)",
			}}
		case "rev-parse":
			return gitcli.Result{Stdout: []string{"origin/main"}}
		case "log":
			if hasArg(inv, "--format=%H %s") {
				return gitcli.Result{Stdout: []string{"abc1234def Fix"}}
			}
			return gitcli.Result{}
		case "diff":
			return gitcli.Result{Stdout: []string{"Content/A.uasset"}}
		default:
			return gitcli.Result{}
		}
	}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpCheckIn, []string{"/repo/Content/A.uasset"})
	cmd.Message = "Fix"
	status := p.ExecuteSync(cmd)

	assert.Equal(t, StatusFailed, status)
	found := false
	for _, line := range cmd.Result.Errors {
		if line == "push rejected: the remote has new commits; sync and resolve before checking in again" {
			found = true
		}
	}
	assert.True(t, found, "manual-resolution error surfaced: %v", cmd.Result.Errors)
}

func TestFetchSweepsContentRoots(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpFetch, nil)
	cmd.UpdateStatusAfterFetch = true
	status := p.ExecuteSync(cmd)
	require.Equal(t, StatusSucceeded, status)

	var fetched, swept bool
	for _, call := range git.calls {
		if call.Command == "fetch" && hasArg(call, "--no-tags") && hasArg(call, "--prune") {
			fetched = true
		}
		if call.Command == "status" {
			swept = true
			assert.Equal(t, []string{"/repo/Content"}, call.Files)
		}
	}
	assert.True(t, fetched)
	assert.True(t, swept)
}

func TestSyncRefusesWhilePendingRestart(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)
	p.pendingRestart.Store(true)

	cmd := p.NewCommand(OpSync, nil)
	status := p.ExecuteSync(cmd)
	assert.Equal(t, StatusFailed, status)

	for _, call := range git.calls {
		assert.NotEqual(t, "pull", call.Command, "no pull while a restart is pending")
	}
}

func TestDeleteStagesRemoval(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpDelete, []string{"/repo/Content/Old.uasset"})
	status := p.ExecuteSync(cmd)
	require.Equal(t, StatusSucceeded, status)

	rec := p.States([]string{"/repo/Content/Old.uasset"})[0]
	assert.Equal(t, vcs.FileDeleted, rec.State.File)
	assert.Equal(t, vcs.TreeStaged, rec.State.Tree)
}

func TestCopyStagesDestination(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpCopy, []string{"/repo/Content/A_Redirector.uasset"})
	status := p.ExecuteSync(cmd)
	require.Equal(t, StatusSucceeded, status)

	var added bool
	for _, call := range git.calls {
		if call.Command == "add" {
			added = true
		}
	}
	assert.True(t, added, "a copy stages its destination")

	rec := p.States([]string{"/repo/Content/A_Redirector.uasset"})[0]
	assert.Equal(t, vcs.FileCopied, rec.State.File)
	assert.Equal(t, vcs.TreeStaged, rec.State.Tree)
	assert.True(t, rec.State.IsAdded())
}

func TestForcedStatusSkipsFreshlyMergedPaths(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	add := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"})
	require.Equal(t, StatusSucceeded, p.ExecuteSync(add))

	before := len(git.calls)
	forced := p.NewCommand(OpUpdateStatus, []string{"/repo/Content/A.uasset"})
	forced.Forced = true
	require.Equal(t, StatusSucceeded, p.ExecuteSync(forced))
	assert.Equal(t, before, len(git.calls), "a just-merged path skips the forced re-query")

	// The mark is consumed: the next forced pass queries again.
	again := p.NewCommand(OpUpdateStatus, []string{"/repo/Content/A.uasset"})
	again.Forced = true
	require.Equal(t, StatusSucceeded, p.ExecuteSync(again))
	assert.Greater(t, len(git.calls), before)
}

func TestMoveToChangelist(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	stage := p.NewCommand(OpMoveToChangelist, []string{"/repo/Content/A.uasset"})
	stage.TargetChangelist = vcs.ChangelistStaged
	require.Equal(t, StatusSucceeded, p.ExecuteSync(stage))

	var added bool
	for _, call := range git.calls {
		if call.Command == "add" {
			added = true
		}
	}
	assert.True(t, added)

	unstage := p.NewCommand(OpMoveToChangelist, []string{"/repo/Content/A.uasset"})
	unstage.TargetChangelist = vcs.ChangelistWorking
	require.Equal(t, StatusSucceeded, p.ExecuteSync(unstage))

	var restored bool
	for _, call := range git.calls {
		if call.Command == "restore" && hasArg(call, "--staged") {
			restored = true
		}
	}
	assert.True(t, restored)
}
