package provider

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"assetbridge/internal/vcs"
)

// Operation names a kind of queued work.
type Operation string

const (
	OpConnect          Operation = "connect"
	OpUpdateStatus     Operation = "update-status"
	OpCheckOut         Operation = "checkout"
	OpCheckIn          Operation = "checkin"
	OpMarkForAdd       Operation = "mark-for-add"
	OpCopy             Operation = "copy"
	OpDelete           Operation = "delete"
	OpRevert           Operation = "revert"
	OpSync             Operation = "sync"
	OpFetch            Operation = "fetch"
	OpResolve          Operation = "resolve"
	OpMoveToChangelist Operation = "move-to-changelist"
)

// CommandStatus is the terminal state reported to completion callbacks.
type CommandStatus int

const (
	StatusSucceeded CommandStatus = iota
	StatusFailed
	StatusCancelled
)

func (s CommandStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// CompletionFunc fires from the drain pass when a command finishes.
type CompletionFunc func(cmd *Command, status CommandStatus)

// Command is one unit of queued work. Settings are snapshotted at
// construction; a command never re-reads configuration mid-flight.
type Command struct {
	ID    string
	Op    Operation
	Files []string

	// Snapshot of provider settings at creation time.
	GitBin         string
	RepoRoot       string
	LockingEnabled bool
	LockUser       string

	// Operation options.
	Message                string // checkin description
	UpdateHistory          bool   // update-status: also fetch file history
	Forced                 bool   // update-status: re-query even fresh records
	TargetChangelist       string // move-to-changelist destination
	UpdateStatusAfterFetch bool   // fetch: follow with a status sweep

	// Results, written by the worker, read from the drain pass.
	Success       bool
	Result        vcs.Messages
	CommitID      string
	CommitSummary string

	deltas    map[string]vcs.State
	resolves  map[string]vcs.ResolveInfo
	histories map[string][]*vcs.Revision
	evict     []string

	processed  atomic.Bool
	cancelled  atomic.Bool
	finishOnce sync.Once
	done       chan struct{}
	status     CommandStatus

	onComplete CompletionFunc
}

// NewCommand snapshots the provider's settings into a fresh command.
func (p *Provider) NewCommand(op Operation, files []string) *Command {
	return &Command{
		ID:             uuid.NewString(),
		Op:             op,
		Files:          files,
		GitBin:         p.gitBin,
		RepoRoot:       p.repoRoot,
		LockingEnabled: p.cfg.UseLocking,
		LockUser:       p.lockUser(),
		deltas:         map[string]vcs.State{},
		resolves:       map[string]vcs.ResolveInfo{},
		histories:      map[string][]*vcs.Revision{},
		done:           make(chan struct{}),
	}
}

// OnComplete registers the completion callback. Must be set before the
// command is issued.
func (c *Command) OnComplete(fn CompletionFunc) *Command {
	c.onComplete = fn
	return c
}

// Cancel requests cooperative cancellation. A command already executing
// still runs to completion; its results are discarded at drain time.
func (c *Command) Cancel() { c.cancelled.Store(true) }

// Done is closed once the command has been drained.
func (c *Command) Done() <-chan struct{} { return c.done }

// Status is valid after Done is closed.
func (c *Command) Status() CommandStatus { return c.status }

func (c *Command) addDelta(path string, st vcs.State) {
	c.deltas[path] = st
}

func (c *Command) addError(msg string) {
	c.Result.Errors = append(c.Result.Errors, msg)
}

func (c *Command) addInfo(msg string) {
	c.Result.Info = append(c.Result.Info, msg)
}

func (c *Command) finish(status CommandStatus) {
	c.finishOnce.Do(func() {
		c.status = status
		if c.onComplete != nil {
			c.onComplete(c, status)
		}
		close(c.done)
	})
}

// ReclassifyBenignErrors moves error lines containing filter into the info
// list. When that empties the error list of a failed command, the command
// is retroactively marked successful: the tool warned, it did not fail.
func (c *Command) ReclassifyBenignErrors(filter string) {
	if len(c.Result.Errors) == 0 {
		return
	}
	kept := c.Result.Errors[:0]
	for _, line := range c.Result.Errors {
		if strings.Contains(line, filter) {
			c.Result.Info = append(c.Result.Info, line)
		} else {
			kept = append(kept, line)
		}
	}
	c.Result.Errors = kept
	if len(c.Result.Errors) == 0 && !c.Success {
		c.Success = true
	}
}
