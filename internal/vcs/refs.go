package vcs

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// OpenRepository locates and opens the repository containing dir without
// spawning a process. Returns the repository handle and its worktree root.
func OpenRepository(dir string) (*git.Repository, string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("open repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, "", fmt.Errorf("resolve worktree: %w", err)
	}
	return repo, wt.Filesystem.Root(), nil
}

// Identity reads user.name and user.email through the full config scope
// chain (repository, then global, then system).
func Identity(repo *git.Repository) (name, email string) {
	cfg, err := repo.ConfigScoped(config.SystemScope)
	if err != nil {
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}

// MatchRemoteBranches expands wildcard patterns such as "origin/release/*"
// against the remote tracking refs, returning short branch names. The
// symbolic HEAD entries remotes carry are skipped.
func MatchRemoteBranches(repo *git.Repository, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer refs.Close()

	var branches []string
	seen := map[string]struct{}{}
	for {
		ref, err := refs.Next()
		if err != nil {
			break
		}
		name := ref.Name()
		if !name.IsRemote() {
			continue
		}
		short := name.Short()
		if strings.HasSuffix(short, "/HEAD") {
			continue
		}
		for _, pattern := range patterns {
			matched, matchErr := path.Match(pattern, short)
			if matchErr != nil || !matched {
				continue
			}
			if _, dup := seen[short]; !dup {
				seen[short] = struct{}{}
				branches = append(branches, short)
			}
			break
		}
	}
	return branches, nil
}
