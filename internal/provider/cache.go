// Package provider owns the per-repository state: the file state cache,
// the lock cache, the command queue, and the operation workers that bridge
// an editor's asset view onto git + git-lfs.
package provider

import (
	"sync"
	"time"

	"assetbridge/internal/vcs"
)

// StateCache maps absolute paths to their cached records. Writes happen
// only from the queue's drain pass; the mutex exists because snapshots may
// be taken from other contexts (UI, workers) while a drain is running.
type StateCache struct {
	mu           sync.RWMutex
	records      map[string]*vcs.Record
	ignoreForced map[string]struct{}
	usesCheckout bool

	now func() time.Time
}

func NewStateCache(usesCheckout bool) *StateCache {
	return &StateCache{
		records:      map[string]*vcs.Record{},
		ignoreForced: map[string]struct{}{},
		usesCheckout: usesCheckout,
		now:          time.Now,
	}
}

// Get returns the record for path, creating a default never-queried record
// on first sight. The returned pointer must only be mutated from the drain
// pass.
func (c *StateCache) Get(path string) *vcs.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(path)
}

func (c *StateCache) getLocked(path string) *vcs.Record {
	if rec, ok := c.records[path]; ok {
		return rec
	}
	rec := vcs.NewRecord(path)
	c.records[path] = rec
	return rec
}

// Snapshot returns copies of the records for the given paths, safe to read
// from any context. Unknown paths yield fresh default records without
// inserting them.
func (c *StateCache) Snapshot(paths []string) []vcs.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]vcs.Record, 0, len(paths))
	for _, path := range paths {
		if rec, ok := c.records[path]; ok {
			out = append(out, *rec)
		} else {
			out = append(out, *vcs.NewRecord(path))
		}
	}
	return out
}

// Apply merges state deltas into the cache, field by field. An Unset field
// in a delta never clears known state; an Added file state is rejected
// unless the record could legitimately transition to Added. Reports
// whether any field actually changed, so a delta that only restates what
// the cache already holds does not ripple into change notifications.
func (c *StateCache) Apply(deltas map[string]vcs.State) bool {
	if len(deltas) == 0 {
		return false
	}

	// The timestamp drives an editor-side modification heuristic that only
	// matters under the locking workflow; the zero sentinel disables it.
	stamp := time.Time{}
	if c.usesCheckout {
		stamp = c.now()
	}

	changed := false
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, delta := range deltas {
		rec := c.getLocked(path)
		before := rec.State
		if delta.File != vcs.FileUnset {
			// A stale Added delta must not clobber a record that has
			// since moved on to a tracked state.
			if delta.File != vcs.FileAdded || rec.State.IsUnknown() || rec.State.CanAdd() {
				rec.State.File = delta.File
			}
		}
		if delta.Tree != vcs.TreeUnset {
			rec.State.Tree = delta.Tree
		}
		if delta.Lock != vcs.LockUnset {
			rec.State.Lock = delta.Lock
			rec.State.LockUser = delta.LockUser
		}
		if delta.Remote != vcs.RemoteUnset {
			rec.State.Remote = delta.Remote
			if delta.Remote == vcs.RemoteUpToDate {
				rec.State.HeadBranch = ""
			} else {
				rec.State.HeadBranch = delta.HeadBranch
			}
		}
		// Changelist membership mirrors the index position.
		switch rec.State.Tree {
		case vcs.TreeStaged:
			rec.Changelist = vcs.ChangelistStaged
		case vcs.TreeWorking:
			rec.Changelist = vcs.ChangelistWorking
		default:
			rec.Changelist = ""
		}
		rec.Timestamp = stamp
		c.ignoreForced[path] = struct{}{}
		if rec.State != before {
			changed = true
		}
	}
	return changed
}

// SetResolve attaches conflict metadata to a record. Drain-pass only.
func (c *StateCache) SetResolve(path string, info vcs.ResolveInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getLocked(path).Resolve = info
}

// SetHistory attaches a parsed revision log to a record. Drain-pass only.
func (c *StateCache) SetHistory(path string, history []*vcs.Revision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getLocked(path).History = history
}

// Remove evicts a record, reporting whether it existed.
func (c *StateCache) Remove(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[path]; !ok {
		return false
	}
	delete(c.records, path)
	delete(c.ignoreForced, path)
	return true
}

// ConsumeIgnoreForced reports whether path was merged since the last forced
// refresh, clearing the mark. A forced re-check right after a merge would
// only repeat work.
func (c *StateCache) ConsumeIgnoreForced(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ignoreForced[path]; !ok {
		return false
	}
	delete(c.ignoreForced, path)
	return true
}

// Paths lists every cached path.
func (c *StateCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.records))
	for path := range c.records {
		out = append(out, path)
	}
	return out
}

// Clear drops all cached records, e.g. on disconnect.
func (c *StateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = map[string]*vcs.Record{}
	c.ignoreForced = map[string]struct{}{}
}
