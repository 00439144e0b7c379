package vcs

import (
	"testing"
	"time"
)

var sampleLog = []string{
	"commit a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
	"Author: Alice Example <alice@example.com>",
	"Date:   1700000300 +0100",
	"    Move the lobby map",
	"    into its own folder",
	"R100\tContent/Lobby.umap\tContent/Maps/Lobby.umap",
	"commit ffeeddccbbaa99887766554433221100aabbccdd",
	"Author: Bob <bob@example.com>",
	"Date:   1700000200 +0100",
	"    Tweak lighting",
	"M\tContent/Lobby.umap",
	"commit 0123456789abcdef0123456789abcdef01234567",
	"Author: Alice Example <alice@example.com>",
	"Date:   1700000100 +0100",
	"    First import",
	"A\tContent/Lobby.umap",
}

func TestParseLog(t *testing.T) {
	t.Parallel()

	history := ParseLog(sampleLog)
	if len(history) != 3 {
		t.Fatalf("parsed %d revisions, want 3", len(history))
	}

	newest := history[0]
	if newest.CommitID != "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678" {
		t.Fatalf("commit id = %q", newest.CommitID)
	}
	if newest.ShortCommitID != "a1b2c3d4" {
		t.Fatalf("short id = %q", newest.ShortCommitID)
	}
	if newest.Author != "Alice Example" {
		t.Fatalf("author = %q", newest.Author)
	}
	if !newest.Date.Equal(time.Unix(1700000300, 0)) {
		t.Fatalf("date = %v", newest.Date)
	}
	if newest.Description != "Move the lobby map\ninto its own folder\n" {
		t.Fatalf("description = %q", newest.Description)
	}
	if newest.Action != "branch" {
		t.Fatalf("action = %q, want branch for a rename", newest.Action)
	}
	if newest.Filename != "Content/Maps/Lobby.umap" {
		t.Fatalf("filename = %q, want the post-rename path", newest.Filename)
	}
}

func TestParseLogRevisionNumbers(t *testing.T) {
	t.Parallel()

	history := ParseLog(sampleLog)
	if len(history) != 3 {
		t.Fatalf("parsed %d revisions, want 3", len(history))
	}

	// Newest-first input: newest gets N, oldest gets 1.
	for i, want := range []int{3, 2, 1} {
		if history[i].RevisionNumber != want {
			t.Fatalf("revision %d number = %d, want %d", i, history[i].RevisionNumber, want)
		}
	}

	// The rename at the top links back to the revision it came from.
	if history[0].BranchSource != history[1] {
		t.Fatal("rename revision must link its branch source to the next entry")
	}
	if history[1].BranchSource != nil || history[2].BranchSource != nil {
		t.Fatal("plain revisions must not carry a branch source")
	}
}

func TestParseLogActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status byte
		want   string
	}{
		{'M', "modified"},
		{'A', "add"},
		{'D', "delete"},
		{'R', "branch"},
		{'C', "branch"},
		{'T', "type changed"},
		{'U', "unmerged"},
		{'X', "unknown"},
		{'B', "broken"},
		{'Z', ""},
	}
	for _, tt := range tests {
		if got := logAction(tt.status); got != tt.want {
			t.Fatalf("logAction(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestParseLSTree(t *testing.T) {
	t.Parallel()

	lines := []string{
		"100644 blob 9daeafb9864cf43055ae93beb0afd6c7d144bfa4    1048576\tContent/Lobby.umap",
	}
	hash, size := ParseLSTree(lines)
	if hash != "9daeafb9864cf43055ae93beb0afd6c7d144bfa4" {
		t.Fatalf("hash = %q", hash)
	}
	if size != 1048576 {
		t.Fatalf("size = %d, want 1048576", size)
	}

	if hash, size := ParseLSTree(nil); hash != "" || size != 0 {
		t.Fatal("empty input must yield zero values")
	}
}
