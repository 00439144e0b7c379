package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetbridge/internal/config"
	"assetbridge/internal/gitcli"
	"assetbridge/internal/vcs"
)

// fakeGit answers scripted responses keyed on the git subcommand.
type fakeGit struct {
	calls   []gitcli.Invocation
	respond func(inv gitcli.Invocation) gitcli.Result
}

func (f *fakeGit) Run(inv gitcli.Invocation) (gitcli.Result, error) {
	f.calls = append(f.calls, inv)
	if f.respond == nil {
		return gitcli.Result{}, nil
	}
	return f.respond(inv), nil
}

// newTestProvider wires a provider around a scripted git, already
// "connected", running commands inline.
func newTestProvider(t *testing.T, git *fakeGit) *Provider {
	t.Helper()

	cfg := config.Settings{
		UseLocking:   true,
		LockUser:     "alice",
		ContentRoots: []string{"Content"},
		Workers:      0,
	}
	p := New(cfg, "/repo", WithRunner(git))
	p.available = true
	p.gitBin = "git"
	p.repoRoot = "/repo"
	p.upstream = "origin/main"
	p.lockables.AddFromCheckAttr([]string{"*.uasset: lockable: set", "*.umap: lockable: set"})
	p.locks = vcs.NewLockCache(p.helpers(), "alice")
	return p
}

func TestTickDrainsOneCommandPerCall(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	drained := 0
	first := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"}).
		OnComplete(func(*Command, CommandStatus) { drained++ })
	second := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/B.uasset"}).
		OnComplete(func(*Command, CommandStatus) { drained++ })

	p.Issue(first)
	p.Issue(second)

	require.True(t, p.Tick())
	assert.Equal(t, 1, drained, "one completed command per tick")
	require.True(t, p.Tick())
	assert.Equal(t, 2, drained)
	assert.False(t, p.Tick(), "queue drained")
}

func TestDrainLoopCompletesQueuedCommands(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)
	t.Cleanup(func() { p.Close() })

	p.StartDrainLoop(time.Millisecond)

	first := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"})
	second := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/B.uasset"})
	p.Issue(first)
	p.Issue(second)

	<-first.Done()
	<-second.Done()
	assert.Equal(t, StatusSucceeded, first.Status())
	assert.Equal(t, StatusSucceeded, second.Status())
}

func TestExecuteSyncReturnsStatus(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"})
	status := p.ExecuteSync(cmd)
	assert.Equal(t, StatusSucceeded, status)

	rec := p.States([]string{"/repo/Content/A.uasset"})[0]
	assert.Equal(t, vcs.FileAdded, rec.State.File)
	assert.Equal(t, vcs.TreeStaged, rec.State.Tree)
}

func TestCancelledCommandDiscardsResults(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	var got CommandStatus
	cmd := p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"}).
		OnComplete(func(_ *Command, status CommandStatus) { got = status })
	cmd.Cancel()
	p.Issue(cmd)

	require.True(t, p.Tick())
	assert.Equal(t, StatusCancelled, got, "completion still fires, with Cancelled")
	rec := p.States([]string{"/repo/Content/A.uasset"})[0]
	assert.True(t, rec.State.IsUnknown(), "cancelled results are discarded")
}

func TestIssueFailsFastWhenUnavailable(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)
	p.available = false
	p.availErr = ErrToolUnavailable

	cmd := p.NewCommand(OpUpdateStatus, nil)
	status := p.ExecuteSync(cmd)
	assert.Equal(t, StatusFailed, status)
	assert.Contains(t, cmd.Result.Errors[0], "git binary")
	assert.Empty(t, git.calls, "no tool invocations while unavailable")
}

func TestReclassifyBenignErrors(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	cmd := p.NewCommand(OpUpdateStatus, nil)
	cmd.Success = false
	cmd.Result.Errors = []string{
		"warning: could not open directory 'Saved/': outside repository",
		"fatal: bad revision",
	}
	cmd.ReclassifyBenignErrors("outside repository")
	assert.False(t, cmd.Success, "a real error keeps the command failed")
	assert.Len(t, cmd.Result.Errors, 1)
	assert.Len(t, cmd.Result.Info, 1)

	only := p.NewCommand(OpUpdateStatus, nil)
	only.Success = false
	only.Result.Errors = []string{"path 'Engine/Binaries' is outside repository"}
	only.ReclassifyBenignErrors("outside repository")
	assert.True(t, only.Success, "all-benign errors flip the verdict to success")
	assert.Empty(t, only.Result.Errors)
	assert.Len(t, only.Result.Info, 1)
}

func TestOnStateChangedFiresAfterMerge(t *testing.T) {
	t.Parallel()

	git := &fakeGit{}
	p := newTestProvider(t, git)

	fired := 0
	p.OnStateChanged = func() { fired++ }

	p.Issue(p.NewCommand(OpMarkForAdd, []string{"/repo/Content/A.uasset"}))
	p.Tick()
	assert.Equal(t, 1, fired)
}
