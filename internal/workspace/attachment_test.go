package workspace

import "testing"

func TestAttachmentDetectsDetachment(t *testing.T) {
	storeDir := t.TempDir()
	t.Setenv("JIN_DIR", storeDir)
	projectDir := t.TempDir()

	w, err := OpenForWrite(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Store().SetRef("refs/jin/layers/mode/claude/_", "commit1"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAttachment(Attachment{"refs/jin/layers/mode/claude/_": "commit1"}); err != nil {
		t.Fatal(err)
	}
	if err := w.CheckDetached(); err != nil {
		t.Fatalf("expected attached workspace, got: %v", err)
	}

	// Externally advance the ref, simulating another process's commit.
	if err := w.Store().SetRef("refs/jin/layers/mode/claude/_", "commit2"); err != nil {
		t.Fatal(err)
	}
	if err := w.CheckDetached(); err == nil {
		t.Fatal("expected detached workspace error")
	}
}

func TestReadAttachmentEmptyWhenAbsent(t *testing.T) {
	storeDir := t.TempDir()
	t.Setenv("JIN_DIR", storeDir)
	projectDir := t.TempDir()

	w, err := OpenForWrite(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	a, err := w.ReadAttachment()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 0 {
		t.Fatalf("expected empty attachment, got %+v", a)
	}
}
