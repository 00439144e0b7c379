package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-git/v5"

	"assetbridge/internal/config"
	"assetbridge/internal/gitcli"
	"assetbridge/internal/vcs"
)

// Availability failures. Every operation fails fast with one of these until
// Connect succeeds again.
var (
	ErrToolUnavailable    = errors.New("git binary not found or too old")
	ErrRepositoryNotFound = errors.New("no git repository found")
)

// PackageReloader lets the host editor detach asset packages before files
// are rewritten on disk and reload them afterwards.
type PackageReloader interface {
	// Unlink releases in-memory packages for paths, returning opaque
	// handles for the later reload.
	Unlink(paths []string) []string
	// Reload restores the packages identified by handles.
	Reload(handles []string)
}

type noopReloader struct{}

func (noopReloader) Unlink([]string) []string { return nil }
func (noopReloader) Reload([]string)          {}

// Provider owns every per-repository cache and the command queue. There is
// no package-level state: hosts may run one provider per repository.
type Provider struct {
	cfg      config.Settings
	workDir  string
	runner   gitcli.Runner
	reloader PackageReloader

	gitBin   string
	repoRoot string
	repo     *git.Repository

	branchName string
	upstream   string
	remoteURL  string
	userName   string
	userEmail  string

	commitMu      sync.Mutex
	commitID      string
	commitSummary string

	available bool
	availErr  error

	cache     *StateCache
	locks     *vcs.LockCache
	lockables *vcs.LockableSet

	statusBranches []string

	// lastErrors is read by availability probes outside the drain pass.
	errMu      sync.Mutex
	lastErrors []string

	pendingRestart atomic.Bool

	queueMu sync.Mutex
	queue   []*Command
	jobs    chan *Command
	wg      sync.WaitGroup
	stop    chan struct{}
	ticking atomic.Bool

	ops map[Operation]workerFunc

	refresher *refreshRunner

	// OnStateChanged fires from the drain pass after a merge changed the
	// cache.
	OnStateChanged func()
}

// Option customizes a Provider at construction.
type Option func(*Provider)

// WithRunner substitutes the process runner; tests inject scripted ones.
func WithRunner(r gitcli.Runner) Option {
	return func(p *Provider) { p.runner = r }
}

// WithReloader wires the host's package reload hooks.
func WithReloader(r PackageReloader) Option {
	return func(p *Provider) { p.reloader = r }
}

// New builds a provider rooted at workDir. Call Connect before issuing
// commands.
func New(cfg config.Settings, workDir string, opts ...Option) *Provider {
	cfg = cfg.Normalized()
	p := &Provider{
		cfg:      cfg,
		workDir:  workDir,
		runner:   gitcli.ExecRunner{},
		reloader: noopReloader{},
		cache:    NewStateCache(cfg.UseLocking),
		stop:     make(chan struct{}),
	}
	p.lockables = &vcs.LockableSet{}
	p.ops = operationWorkers()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect probes the git binary, locates the repository, reads its facts,
// and primes the caches. It must succeed before commands run.
func (p *Provider) Connect() error {
	p.available = false

	bin := p.cfg.BinaryPath
	if bin == "" {
		bin = gitcli.FindGitBinary()
	}
	if bin == "" {
		p.availErr = ErrToolUnavailable
		return ErrToolUnavailable
	}
	if err := gitcli.CheckAvailability(p.runner, bin); err != nil {
		p.availErr = fmt.Errorf("%w: %v", ErrToolUnavailable, err)
		return p.availErr
	}
	p.gitBin = bin

	root, found := gitcli.FindRepoRoot(p.workDir)
	if !found {
		p.availErr = ErrRepositoryNotFound
		return ErrRepositoryNotFound
	}
	p.repoRoot = root

	// The go-git handle serves read-only queries (identity, remote refs)
	// without spawning processes. CLI fallbacks cover open failures.
	if repo, _, err := vcs.OpenRepository(root); err == nil {
		p.repo = repo
	} else {
		slog.Debug("native repository open failed, using CLI fallbacks",
			slog.String("root", root), slog.Any("error", err))
	}

	h := p.helpers()
	p.branchName, _ = h.BranchName()
	p.upstream, _ = h.UpstreamBranch()
	p.remoteURL, _ = h.RemoteURL()
	p.userName, p.userEmail = p.identity(h)
	p.statusBranches = p.expandStatusBranches(h)

	if p.cfg.UseLocking {
		var msgs vcs.Messages
		if lines, ok := h.CheckAttrLockable(p.cfg.LockableHints, &msgs); ok {
			p.lockables.AddFromCheckAttr(lines)
		}
	}
	p.locks = vcs.NewLockCache(h, p.lockUser())

	p.available = true
	p.availErr = nil
	slog.Info("connected to repository",
		slog.String("root", p.repoRoot),
		slog.String("branch", p.branchName),
		slog.String("upstream", p.upstream))
	return nil
}

// IsAvailable reports whether Connect has succeeded.
func (p *Provider) IsAvailable() bool { return p.available }

// RepoRoot returns the working copy root once connected.
func (p *Provider) RepoRoot() string { return p.repoRoot }

// BranchName returns the checked-out branch as of the last Connect.
func (p *Provider) BranchName() string { return p.branchName }

// RemoteURL returns the origin URL as of the last Connect.
func (p *Provider) RemoteURL() string { return p.remoteURL }

// UserName returns the committer identity from git config.
func (p *Provider) UserName() string { return p.userName }

// PendingRestart reports whether the upstream carries binaries newer than
// the running editor.
func (p *Provider) PendingRestart() bool { return p.pendingRestart.Load() }

// CommitInfo returns the hash and summary of the most recent commit seen.
func (p *Provider) CommitInfo() (string, string) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	return p.commitID, p.commitSummary
}

// LastErrors returns the error lines of the most recently drained failed
// command.
func (p *Provider) LastErrors() []string {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return append([]string(nil), p.lastErrors...)
}

func (p *Provider) setLastErrors(errs []string) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.lastErrors = append([]string(nil), errs...)
}

// States returns copies of the cached records for the given paths.
func (p *Provider) States(paths []string) []vcs.Record {
	return p.cache.Snapshot(paths)
}

// CachedPaths lists every path the cache knows about.
func (p *Provider) CachedPaths() []string { return p.cache.Paths() }

// Locks returns the lfs lock table (path -> owner), refreshing it when
// force is set.
func (p *Provider) Locks(force bool) (map[string]string, []string) {
	if p.locks == nil {
		return nil, nil
	}
	return p.locks.GetAll(force)
}

// ConflictPreview renders a unified diff between the common ancestor and
// the local content of a conflicted file. The file must carry recorded
// conflict stages, i.e. a status update saw it unmerged.
func (p *Provider) ConflictPreview(path string) (string, error) {
	recs := p.cache.Snapshot([]string{path})
	if len(recs) == 0 || !recs[0].Resolve.IsValid() {
		return "", fmt.Errorf("%s has no recorded conflict", path)
	}

	var msgs vcs.Messages
	base, ok := p.helpers().ShowBlob(recs[0].Resolve.BaseRevision, &msgs)
	if !ok {
		return "", fmt.Errorf("read base revision %s: %s",
			recs[0].Resolve.BaseRevision, strings.Join(msgs.Errors, "; "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ours := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	name := path
	if rel, relErr := filepath.Rel(p.repoRoot, path); relErr == nil {
		name = filepath.ToSlash(rel)
	}
	return vcs.ConflictPreview(base, ours, name)
}

// Close stops the background machinery and drops the caches.
func (p *Provider) Close() {
	p.StopBackgroundRefresh()
	p.stopWorkers()
	p.cache.Clear()
	p.available = false
}

func (p *Provider) lockUser() string {
	if p.cfg.LockUser != "" {
		return p.cfg.LockUser
	}
	return p.userName
}

func (p *Provider) helpers() *vcs.Helpers {
	return vcs.NewHelpers(p.runner, p.gitBin, p.repoRoot)
}

func (p *Provider) identity(h *vcs.Helpers) (string, string) {
	if p.repo != nil {
		if name, email := vcs.Identity(p.repo); name != "" || email != "" {
			return name, email
		}
	}
	return h.ConfigValue("user.name"), h.ConfigValue("user.email")
}

func (p *Provider) expandStatusBranches(h *vcs.Helpers) []string {
	if len(p.cfg.StatusBranches) == 0 {
		return nil
	}
	if p.repo != nil {
		if branches, err := vcs.MatchRemoteBranches(p.repo, p.cfg.StatusBranches); err == nil {
			return branches
		}
	}
	var branches []string
	seen := map[string]struct{}{}
	for _, pattern := range p.cfg.StatusBranches {
		expanded, ok := h.RemoteBranches(pattern)
		if !ok {
			continue
		}
		for _, b := range expanded {
			if _, dup := seen[b]; !dup {
				seen[b] = struct{}{}
				branches = append(branches, b)
			}
		}
	}
	return branches
}

// reconciler builds the status pipeline bound to a command's settings
// snapshot.
func (p *Provider) reconciler(cmd *Command, h *vcs.Helpers) *vcs.Reconciler {
	return &vcs.Reconciler{
		Helpers:         h,
		Locks:           p.locks,
		Lockables:       p.lockables,
		LockingEnabled:  cmd.LockingEnabled,
		LockUser:        cmd.LockUser,
		StatusBranches:  p.statusBranches,
		Upstream:        p.upstream,
		DivergenceRoots: p.cfg.ContentRoots,
		RestartWatch:    p.cfg.RestartWatch,
		OnPendingRestart: func() {
			if !p.pendingRestart.Swap(true) {
				slog.Warn("upstream carries newer binaries; restart required before syncing")
			}
		},
	}
}

// contentRootPaths returns the configured content roots as absolute paths.
func (p *Provider) contentRootPaths() []string {
	return vcs.AbsolutePaths(p.repoRoot, p.cfg.ContentRoots)
}
