package vcs

import (
	"strings"
	"testing"
)

func TestParseUnmergedStages(t *testing.T) {
	t.Parallel()

	lines := []string{
		"100644 1111111111111111111111111111111111111111 1\tContent/Map.umap",
		"100644 2222222222222222222222222222222222222222 2\tContent/Map.umap",
		"100644 3333333333333333333333333333333333333333 3\tContent/Map.umap",
	}
	info, ok := ParseUnmergedStages(lines)
	if !ok {
		t.Fatal("expected a valid three-stage conflict")
	}
	if info.BaseRevision != "1111111111111111111111111111111111111111" {
		t.Fatalf("base revision = %q", info.BaseRevision)
	}
	if info.RemoteRevision != "3333333333333333333333333333333333333333" {
		t.Fatalf("remote revision = %q", info.RemoteRevision)
	}
	if info.BaseFile != "Content/Map.umap" || info.RemoteFile != "Content/Map.umap" {
		t.Fatalf("stage paths = %q / %q", info.BaseFile, info.RemoteFile)
	}
}

func TestParseUnmergedStagesRejectsPartial(t *testing.T) {
	t.Parallel()

	// Delete/modify conflicts produce fewer than three stages; those are
	// not resolvable through the normal three-way path.
	two := []string{
		"100644 1111111111111111111111111111111111111111 1\tContent/Map.umap",
		"100644 2222222222222222222222222222222222222222 2\tContent/Map.umap",
	}
	if _, ok := ParseUnmergedStages(two); ok {
		t.Fatal("two stages must not parse as a full conflict")
	}

	garbage := []string{"a", "b", "c"}
	if _, ok := ParseUnmergedStages(garbage); ok {
		t.Fatal("malformed lines must not parse")
	}
}

func TestConflictPreview(t *testing.T) {
	t.Parallel()

	base := []string{"alpha\n", "beta\n", "gamma\n"}
	ours := []string{"alpha\n", "BETA\n", "gamma\n"}
	out, err := ConflictPreview(base, ours, "Config/Game.ini")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "-beta") || !strings.Contains(out, "+BETA") {
		t.Fatalf("diff missing change markers:\n%s", out)
	}
	if !strings.Contains(out, "Config/Game.ini (base)") {
		t.Fatalf("diff missing labels:\n%s", out)
	}
}
