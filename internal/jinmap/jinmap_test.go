package jinmap

import (
	"reflect"
	"testing"

	"github.com/anthropics/jin/internal/objstore"
)

func newStore(t *testing.T) *objstore.Store {
	t.Helper()
	s, err := objstore.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRebuildAllFromRefs(t *testing.T) {
	s := newStore(t)
	hA, _ := s.WriteBlob([]byte("a"))
	tree, _ := s.BuildTree([]objstore.TreeEntryInput{
		{Path: "b.txt", Hash: hA, Mode: 0644},
		{Path: "dir/a.txt", Hash: hA, Mode: 0644},
	})
	commit, err := s.Commit(objstore.Commit{TreeHash: tree, Message: "init"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetRef("refs/jin/layers/global", commit); err != nil {
		t.Fatal(err)
	}

	m, err := RebuildAll(s)
	if err != nil {
		t.Fatal(err)
	}
	got := m.PathsFor("refs/jin/layers/global")
	want := []string{"b.txt", "dir/a.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	m := &Map{Entries: map[string][]string{"refs/jin/layers/global": {"a.txt", "b.txt"}}}
	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.PathsFor("refs/jin/layers/global"), []string{"a.txt", "b.txt"}) {
		t.Fatalf("got %+v", loaded)
	}
}

func TestLoadEmptyWhenAbsent(t *testing.T) {
	s := newStore(t)
	m, err := Load(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Entries) != 0 {
		t.Fatalf("expected empty map, got %+v", m)
	}
}

func TestRefreshForClearsOnEmptyTreeHash(t *testing.T) {
	m := &Map{Entries: map[string][]string{"refs/jin/layers/global": {"a.txt"}}}
	if err := m.RefreshFor(nil, "refs/jin/layers/global", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Entries["refs/jin/layers/global"]; ok {
		t.Fatal("expected entry to be cleared")
	}
}
