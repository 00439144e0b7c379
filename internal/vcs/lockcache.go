package vcs

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// lockCacheTTL is how long a lock snapshot stays fresh. Status parses
// within the window reuse the snapshot instead of hitting the LFS server.
const lockCacheTTL = 30 * time.Second

// LocksQuerier fetches the lock table. extraArgs scopes the query
// ("--cached", "--local"); a non-empty user filters to that owner's locks.
type LocksQuerier interface {
	QueryLocks(extraArgs []string, user string) (map[string]string, []string, bool)
}

// LockCache tracks which files are locked on the LFS server and by whom.
// Absolute path -> owner. Refreshes are rate limited; when the server is
// unreachable the cache falls back to lfs's own cached view scoped to the
// local identity, and finally to the last good snapshot.
type LockCache struct {
	mu            sync.Mutex
	locks         map[string]string
	lastRefreshed time.Time

	query    LocksQuerier
	lockUser string

	// Injection points for tests.
	now         func() time.Time
	setReadOnly func(path string, readOnly bool) error
}

func NewLockCache(query LocksQuerier, lockUser string) *LockCache {
	return &LockCache{
		locks:       map[string]string{},
		query:       query,
		lockUser:    lockUser,
		now:         time.Now,
		setReadOnly: setFileReadOnly,
	}
}

// GetAll returns the lock table, refreshing from the server when forced or
// when the snapshot is older than lockCacheTTL.
func (c *LockCache) GetAll(force bool) (map[string]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force || c.now().Sub(c.lastRefreshed) > lockCacheTTL {
		if locks, errs, ok := c.query.QueryLocks(nil, ""); ok {
			c.lastRefreshed = c.now()
			c.replaceLocked(locks)
			return copyLocks(c.locks), errs
		}

		// Server unreachable. lfs keeps a local record of our own locks;
		// serve those without touching the snapshot or the refresh clock.
		cached, errs1, ok1 := c.query.QueryLocks([]string{"--cached"}, c.lockUser)
		local, errs2, ok2 := c.query.QueryLocks([]string{"--local"}, c.lockUser)
		if ok1 && ok2 {
			merged := copyLocks(cached)
			for path, user := range local {
				merged[path] = user
			}
			return merged, append(errs1, errs2...)
		}
	}
	return copyLocks(c.locks), nil
}

// Add records a freshly taken lock without a server round trip.
func (c *LockCache) Add(path, user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[path] != user {
		c.locks[path] = user
		c.onLockChanged(path, user, true)
	}
}

// Remove forgets a released lock.
func (c *LockCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if user, ok := c.locks[path]; ok {
		delete(c.locks, path)
		c.onLockChanged(path, user, false)
	}
}

// replaceLocked swaps in a full new lock table, toggling the read-only bit
// for every lock of ours that appeared, disappeared, or changed hands.
// Caller holds mu.
func (c *LockCache) replaceLocked(next map[string]string) {
	for path, user := range c.locks {
		if nextUser, still := next[path]; !still || nextUser != user {
			c.onLockChanged(path, user, false)
		}
	}
	for path, user := range next {
		if prevUser, had := c.locks[path]; !had || prevUser != user {
			c.onLockChanged(path, user, true)
		}
	}
	c.locks = copyLocks(next)
}

// onLockChanged flips the working-copy read-only bit, but only for locks
// held by the local identity. Other people's locks must not touch our disk.
func (c *LockCache) onLockChanged(path, user string, locked bool) {
	if user != c.lockUser {
		return
	}
	if err := c.setReadOnly(path, !locked); err != nil {
		slog.Error("toggle read-only bit",
			slog.String("path", path),
			slog.Bool("locked", locked),
			slog.Any("error", err))
	}
}

func copyLocks(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func setFileReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode()
	if readOnly {
		mode &^= 0o222
	} else if runtime.GOOS == "windows" {
		mode |= 0o222
	} else {
		mode |= 0o200
	}
	return os.Chmod(path, mode)
}

// ParseLockLine decodes one line of "git lfs locks" output:
//
//	<relative path>\t<owner>\t<ID:n>
//
// The owner column is empty in --local output; an empty or ID-shaped owner
// means the lock is ours.
func ParseLockLine(repoRoot, line, localUser string) (path, user string, ok bool) {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) == 0 || fields[0] == "" {
		return "", "", false
	}
	path = filepath.Join(repoRoot, filepath.FromSlash(fields[0]))
	user = localUser
	if len(fields) >= 2 && fields[1] != "" && !strings.HasPrefix(fields[1], "ID:") {
		user = fields[1]
	}
	return path, user, true
}
