package provider

import (
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// refreshInterval paces the periodic fetch + status sweep.
	refreshInterval = 30 * time.Second
	// watchSettle coalesces bursts of git-dir events (a rebase touches
	// many refs) into a single refresh.
	watchSettle = 350 * time.Millisecond
)

// refreshRunner keeps the cache warm in the background: a fetch plus
// status sweep every 30 seconds, and an immediate sweep when the git dir
// changes under us (branch switch, commit from another client).
type refreshRunner struct {
	p       *Provider
	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup

	inFlight atomic.Bool

	timerMu sync.Mutex
	settle  *time.Timer
}

// StartBackgroundRefresh begins the periodic refresh. Safe to call once
// after Connect; requires a running drain loop or a host that ticks.
func (p *Provider) StartBackgroundRefresh() error {
	if p.refresher != nil || !p.available || !p.cfg.BackgroundRefresh {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	gitDir := filepath.Join(p.repoRoot, ".git")
	for _, dir := range []string{gitDir, filepath.Join(gitDir, "refs", "heads"), filepath.Join(gitDir, "refs", "remotes")} {
		if addErr := watcher.Add(dir); addErr != nil {
			slog.Debug("watch git dir", slog.String("dir", dir), slog.Any("error", addErr))
		}
	}

	r := &refreshRunner{p: p, watcher: watcher, stop: make(chan struct{})}
	p.refresher = r
	r.wg.Add(1)
	go r.loop()
	return nil
}

// StopBackgroundRefresh halts the periodic refresh, if running.
func (p *Provider) StopBackgroundRefresh() {
	if p.refresher == nil {
		return
	}
	p.refresher.shutdown()
	p.refresher = nil
}

func (r *refreshRunner) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.spawnRefresh()
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				r.scheduleSettled()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("git dir watcher error", slog.Any("error", err))
		case <-r.stop:
			return
		}
	}
}

// scheduleSettled arms (or re-arms) the settle timer so a burst of events
// produces one refresh after the burst ends.
func (r *refreshRunner) scheduleSettled() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if r.settle != nil {
		r.settle.Stop()
	}
	r.settle = time.AfterFunc(watchSettle, r.spawnRefresh)
}

// spawnRefresh issues one fetch+status command unless one is already in
// flight; overlapping refreshes would only duplicate work.
func (r *refreshRunner) spawnRefresh() {
	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	cmd := r.p.NewCommand(OpFetch, nil)
	cmd.UpdateStatusAfterFetch = true
	cmd.OnComplete(func(*Command, CommandStatus) {
		r.inFlight.Store(false)
	})
	r.p.Issue(cmd)
}

func (r *refreshRunner) shutdown() {
	close(r.stop)
	r.timerMu.Lock()
	if r.settle != nil {
		r.settle.Stop()
	}
	r.timerMu.Unlock()
	r.watcher.Close()
	r.wg.Wait()
}
