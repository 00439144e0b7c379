package vcs

import (
	"strings"
	"sync"
)

// LockableSet accumulates the file extensions whose gitattributes carry the
// lockable flag. Discovery runs once per connection against a candidate
// pattern list; every status parse afterwards reuses the set.
type LockableSet struct {
	mu   sync.Mutex
	exts []string
}

// AddFromCheckAttr reads "git check-attr lockable" output lines of the form
//
//	*.uasset: lockable: set
//
// and records the extension of every pattern whose attribute is set.
func (s *LockableSet) AddFromCheckAttr(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		if !strings.HasSuffix(line, ": set") {
			continue
		}
		pattern, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		pattern = strings.TrimSpace(pattern)
		// Candidate patterns are glob-shaped: "*.uasset" -> ".uasset".
		ext := strings.TrimPrefix(pattern, "*")
		if ext == "" || !strings.HasPrefix(ext, ".") {
			continue
		}
		if !s.containsLocked(ext) {
			s.exts = append(s.exts, ext)
		}
	}
}

// IsLockable reports whether the path's extension was discovered lockable.
func (s *LockableSet) IsLockable(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ext := range s.exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (s *LockableSet) containsLocked(ext string) bool {
	for _, e := range s.exts {
		if e == ext {
			return true
		}
	}
	return false
}
