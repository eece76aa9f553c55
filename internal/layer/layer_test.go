package layer

import "testing"

func TestRefPathBasic(t *testing.T) {
	cases := []struct {
		l    Layer
		want string
	}{
		{Layer{Kind: GlobalBase}, "refs/jin/layers/global"},
		{Layer{Kind: ModeBase, Mode: "claude"}, "refs/jin/layers/mode/claude/_"},
		{Layer{Kind: ScopeBase, Scope: "lang"}, "refs/jin/layers/scope/lang/_"},
		{Layer{Kind: ScopeBase, Scope: "lang:rust"}, "refs/jin/layers/scope/lang/rust/_"},
		{Layer{Kind: ModeScope, Mode: "claude", Scope: "lang:rust"}, "refs/jin/layers/mode/claude/scope/lang/rust/_"},
		{Layer{Kind: ModeProject, Mode: "claude", Project: "app"}, "refs/jin/layers/mode/claude/project/app"},
		{Layer{Kind: ScopeProject, Scope: "lang:rust", Project: "app"}, "refs/jin/layers/scope/lang/rust/project/app"},
		{Layer{Kind: ModeScopeProject, Mode: "claude", Scope: "lang:rust", Project: "app"}, "refs/jin/layers/mode/claude/scope/lang/rust/project/app"},
	}
	for _, c := range cases {
		got, err := RefPath(c.l)
		if err != nil {
			t.Fatalf("RefPath(%+v): %v", c.l, err)
		}
		if got != c.want {
			t.Errorf("RefPath(%+v) = %q, want %q", c.l, got, c.want)
		}
	}
}

func TestRefPathMissingContext(t *testing.T) {
	if _, err := RefPath(Layer{Kind: ModeBase}); err == nil {
		t.Fatal("expected error for ModeBase with no mode")
	}
	if _, err := RefPath(Layer{Kind: UserLocal}); err == nil {
		t.Fatal("expected error for unversioned layer")
	}
}

func TestParseLayerSpecRoundTrip(t *testing.T) {
	layers := []Layer{
		{Kind: GlobalBase},
		{Kind: ModeBase, Mode: "claude"},
		{Kind: ScopeBase, Scope: "lang:rust"},
		{Kind: ModeScope, Mode: "claude", Scope: "lang:rust"},
		{Kind: ModeProject, Mode: "claude", Project: "app"},
		{Kind: ScopeProject, Scope: "lang:rust", Project: "app"},
		{Kind: ModeScopeProject, Mode: "claude", Scope: "lang:rust", Project: "app"},
	}
	for _, l := range layers {
		path, err := RefPath(l)
		if err != nil {
			t.Fatalf("RefPath(%+v): %v", l, err)
		}
		got, err := ParseLayerSpec(path)
		if err != nil {
			t.Fatalf("ParseLayerSpec(%q): %v", path, err)
		}
		if got != l {
			t.Errorf("ParseLayerSpec(%q) = %+v, want %+v", path, got, l)
		}
	}
}

func TestApplicableLayersOrder(t *testing.T) {
	got := ApplicableLayers(Context{Mode: "claude", Project: "foo"})
	want := []Kind{GlobalBase, ModeBase, ModeProject}
	if len(got) != len(want) {
		t.Fatalf("got %d layers, want %d: %+v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("layer %d = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestApplicableLayersFull(t *testing.T) {
	got := ApplicableLayers(Context{Mode: "claude", Scope: "lang:rust", Project: "foo"})
	want := []Kind{GlobalBase, ModeBase, ScopeBase, ModeScope, ModeProject, ScopeProject, ModeScopeProject}
	if len(got) != len(want) {
		t.Fatalf("got %d layers, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Kind != want[i] {
			t.Errorf("layer %d = %v, want %v", i, got[i].Kind, want[i])
		}
		if Precedence(got[i].Kind) != int(want[i]) {
			t.Errorf("precedence mismatch at %d", i)
		}
	}
}

func TestIsVersioned(t *testing.T) {
	if !IsVersioned(GlobalBase) || !IsVersioned(ModeScopeProject) {
		t.Error("versioned layers reported unversioned")
	}
	if IsVersioned(UserLocal) || IsVersioned(WorkspaceActive) {
		t.Error("unversioned layers reported versioned")
	}
}
