package commands

import "testing"

func TestVersionCommandRuns(t *testing.T) {
	if _, err := run(t, "version"); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
}

func TestAddRequiresLayerFlag(t *testing.T) {
	isolatedProject(t, map[string]string{"a.txt": "hello"})
	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, "add", "a.txt"); err == nil {
		t.Fatalf("expected add without --layer to fail")
	}
}

func TestStatusOutsideWorkspaceFails(t *testing.T) {
	setenv(t, "JIN_DIR", t.TempDir())
	restore := chdir(t, t.TempDir())
	defer restore()
	if _, err := run(t, "status"); err == nil {
		t.Fatalf("expected status outside a jin workspace to fail")
	}
}
