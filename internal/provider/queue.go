package provider

import (
	"log/slog"
	"time"

	"assetbridge/internal/vcs"
)

// syncPollInterval paces the self-ticking loop ExecuteSync falls back to
// when no drain loop is running.
const syncPollInterval = 10 * time.Millisecond

// StartWorkers launches the bounded worker pool. With a pool size of zero,
// Issue runs commands inline on the calling goroutine.
func (p *Provider) StartWorkers() {
	if p.cfg.Workers <= 0 || p.jobs != nil {
		return
	}
	p.jobs = make(chan *Command)
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case cmd := <-p.jobs:
					p.execute(cmd)
				case <-p.stop:
					return
				}
			}
		}()
	}
}

func (p *Provider) stopWorkers() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	p.wg.Wait()
}

// Issue queues a command for execution. With no worker pool the command
// body runs inline, but its results still wait for a drain pass: the cache
// is only ever written from Tick.
func (p *Provider) Issue(cmd *Command) bool {
	if !p.available {
		availErr := p.availErr
		if availErr == nil {
			availErr = ErrRepositoryNotFound
		}
		cmd.addError(availErr.Error())
		cmd.processed.Store(true)
		p.enqueue(cmd)
		return false
	}

	p.enqueue(cmd)
	if p.jobs != nil {
		select {
		case p.jobs <- cmd:
			return true
		case <-p.stop:
			return false
		}
	}
	p.execute(cmd)
	return true
}

func (p *Provider) enqueue(cmd *Command) {
	p.queueMu.Lock()
	p.queue = append(p.queue, cmd)
	p.queueMu.Unlock()
}

// execute runs the operation worker. Workers only touch the command and
// the explicitly thread-safe caches; the state cache merge waits for the
// drain pass.
func (p *Provider) execute(cmd *Command) {
	slog.Debug("execute command",
		slog.String("id", cmd.ID),
		slog.String("op", string(cmd.Op)),
		slog.Int("files", len(cmd.Files)))

	worker, ok := p.ops[cmd.Op]
	if !ok {
		cmd.addError("unsupported operation: " + string(cmd.Op))
	} else if !cmd.cancelled.Load() {
		cmd.Success = worker(p, cmd)
	}
	cmd.processed.Store(true)
}

// Tick drains at most one finished command: merges its state deltas, emits
// its messages, and fires its completion callback. Draining one command
// per tick keeps completion callbacks free to enqueue follow-up work
// without racing the queue, and makes this the only place that writes the
// state cache. Reports whether a command was drained.
func (p *Provider) Tick() bool {
	var cmd *Command
	p.queueMu.Lock()
	for i, c := range p.queue {
		if c.processed.Load() || c.cancelled.Load() {
			cmd = c
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.queueMu.Unlock()
	if cmd == nil {
		return false
	}

	if cmd.cancelled.Load() {
		slog.Debug("command cancelled", slog.String("id", cmd.ID), slog.String("op", string(cmd.Op)))
		cmd.finish(StatusCancelled)
		return true
	}

	changed := p.applyResults(cmd)
	p.emitMessages(cmd)

	status := StatusFailed
	if cmd.Success {
		status = StatusSucceeded
	}
	cmd.finish(status)

	if changed && p.OnStateChanged != nil {
		p.OnStateChanged()
	}
	return true
}

func (p *Provider) applyResults(cmd *Command) bool {
	changed := p.cache.Apply(cmd.deltas)
	for path, info := range cmd.resolves {
		p.cache.SetResolve(path, info)
		changed = true
	}
	for path, history := range cmd.histories {
		p.cache.SetHistory(path, history)
		changed = true
	}
	for _, path := range cmd.evict {
		if p.cache.Remove(path) {
			changed = true
		}
	}
	if cmd.CommitID != "" {
		p.commitMu.Lock()
		p.commitID, p.commitSummary = cmd.CommitID, cmd.CommitSummary
		p.commitMu.Unlock()
	}
	return changed
}

func (p *Provider) emitMessages(cmd *Command) {
	for _, line := range cmd.Result.Info {
		slog.Info(line, slog.String("op", string(cmd.Op)))
	}
	for _, line := range cmd.Result.Errors {
		slog.Error(line, slog.String("op", string(cmd.Op)))
	}
	if !cmd.Success {
		p.setLastErrors(cmd.Result.Errors)
	}
}

// StartDrainLoop runs Tick on a fixed cadence until Close. Hosts with
// their own frame tick can skip this and call Tick themselves.
func (p *Provider) StartDrainLoop(interval time.Duration) {
	if !p.ticking.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Tick()
			case <-p.stop:
				return
			}
		}
	}()
}

// ExecuteSync issues cmd and blocks until it has been drained. When a
// drain loop is running this is a pure wait on the command's done channel;
// otherwise the caller ticks the queue itself.
func (p *Provider) ExecuteSync(cmd *Command) CommandStatus {
	p.Issue(cmd)
	if p.ticking.Load() {
		<-cmd.Done()
		return cmd.Status()
	}
	for {
		p.Tick()
		select {
		case <-cmd.Done():
			return cmd.Status()
		case <-time.After(syncPollInterval):
		}
	}
}

// runStatusPass is the shared tail of most operations: reconcile the given
// paths and stash the resulting deltas on the command. Benign "outside
// repository" warnings are reclassified before the verdict.
func runStatusPass(p *Provider, cmd *Command, h *vcs.Helpers, paths []string) bool {
	rec := p.reconciler(cmd, h)
	states, errs, ok := rec.UpdateStatus(paths)
	cmd.Result.Errors = append(cmd.Result.Errors, errs...)
	for path, ps := range states {
		cmd.addDelta(path, ps.State)
		if ps.Resolve.IsValid() {
			cmd.resolves[path] = ps.Resolve
		}
	}
	cmd.ReclassifyBenignErrors("outside repository")
	return ok
}
