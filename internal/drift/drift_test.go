package drift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anthropics/jin/internal/manifest"
)

func TestComputeDetectsAddedModifiedDeleted(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "kept.txt"), []byte("same"), 0644)
	os.WriteFile(filepath.Join(root, "changed.txt"), []byte("old"), 0644)
	os.WriteFile(filepath.Join(root, "gone.txt"), []byte("bye"), 0644)

	base, err := manifest.Generate(root, false)
	if err != nil {
		t.Fatal(err)
	}

	os.WriteFile(filepath.Join(root, "changed.txt"), []byte("new-longer-content"), 0644)
	os.Remove(filepath.Join(root, "gone.txt"))
	os.WriteFile(filepath.Join(root, "added.txt"), []byte("fresh"), 0644)

	report, err := Compute(root, base)
	if err != nil {
		t.Fatal(err)
	}
	if !report.HasChanges() {
		t.Fatal("expected changes")
	}
	if report.TotalChanges() != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", report.TotalChanges(), report)
	}
}

func TestComputeNoChanges(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644)

	base, err := manifest.Generate(root, false)
	if err != nil {
		t.Fatal(err)
	}
	report, err := Compute(root, base)
	if err != nil {
		t.Fatal(err)
	}
	if report.HasChanges() {
		t.Fatalf("expected no changes, got %+v", report)
	}
	if report.FormatSummary() != "No changes" {
		t.Fatalf("got %q", report.FormatSummary())
	}
}

func TestManifestSnapshotRoundTrip(t *testing.T) {
	root := t.TempDir()
	stateDir := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644)

	m, err := manifest.Generate(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveManifestSnapshot(stateDir, m); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadManifestSnapshot(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || len(loaded.Files) != 1 {
		t.Fatalf("expected 1 file in loaded snapshot, got %+v", loaded)
	}
}

func TestLoadManifestSnapshotAbsent(t *testing.T) {
	loaded, err := LoadManifestSnapshot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Fatalf("expected nil when no snapshot saved yet, got %+v", loaded)
	}
}
