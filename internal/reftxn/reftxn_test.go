package reftxn

import (
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

func TestBeginPrepareCommitUpdatesRefs(t *testing.T) {
	s := newStore(t)
	txn, err := Begin(s, "initial commit")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "hash1")
	txn.UpdateRef("refs/jin/layers/mode/claude/_", nil, "hash2")

	if err := txn.Prepare(); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err := s.ResolveRef("refs/jin/layers/global")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hash1" {
		t.Fatalf("got %q, want hash1", got)
	}
	got2, err := s.ResolveRef("refs/jin/layers/mode/claude/_")
	if err != nil {
		t.Fatal(err)
	}
	if got2 != "hash2" {
		t.Fatalf("got %q, want hash2", got2)
	}

	j, err := ReadJournal(s)
	if err != nil {
		t.Fatal(err)
	}
	if j != nil {
		t.Fatalf("expected journal cleaned up after commit, got %+v", j)
	}
}

func TestSecondBeginFailsWhileJournalExists(t *testing.T) {
	s := newStore(t)
	txn, err := Begin(s, "first")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "hash1")
	if err := txn.Prepare(); err != nil {
		t.Fatal(err)
	}
	// Deliberately don't commit, simulating a crash between prepare and commit.

	_, err = Begin(s, "second")
	if err == nil {
		t.Fatal("expected TransactionInProgress error")
	}
}

func TestPrepareRejectsStaleOldHash(t *testing.T) {
	s := newStore(t)
	if err := s.SetRef("refs/jin/layers/global", "current"); err != nil {
		t.Fatal(err)
	}
	txn, err := Begin(s, "stale update")
	if err != nil {
		t.Fatal(err)
	}
	stale := "not-current"
	txn.UpdateRef("refs/jin/layers/global", &stale, "newhash")
	if err := txn.Prepare(); err == nil {
		t.Fatal("expected prepare to reject a stale expected-old-hash")
	}
}

func TestRedoPreparedTransactionIsIdempotent(t *testing.T) {
	s := newStore(t)
	txn, err := Begin(s, "crash after prepare")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "hashA")
	if err := txn.Prepare(); err != nil {
		t.Fatal(err)
	}

	j, err := ReadJournal(s)
	if err != nil {
		t.Fatal(err)
	}
	if j == nil || j.State != Prepared {
		t.Fatalf("expected a prepared journal, got %+v", j)
	}

	// Simulate recovery's redo step.
	if err := ApplyUpdates(s, j.Updates); err != nil {
		t.Fatal(err)
	}
	if err := ApplyUpdates(s, j.Updates); err != nil {
		t.Fatal("re-applying the same updates must be idempotent:", err)
	}
	if err := RemoveJournal(s); err != nil {
		t.Fatal(err)
	}

	got, err := s.ResolveRef("refs/jin/layers/global")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hashA" {
		t.Fatalf("got %q, want hashA", got)
	}
}

func TestAbortDiscardsJournalWithoutWritingRefs(t *testing.T) {
	s := newStore(t)
	txn, err := Begin(s, "will abort")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "shouldnotexist")
	if err := txn.Abort(); err != nil {
		t.Fatal(err)
	}
	got, err := s.ResolveRef("refs/jin/layers/global")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("expected ref unset after abort, got %q", got)
	}
	j, err := ReadJournal(s)
	if err != nil {
		t.Fatal(err)
	}
	if j != nil {
		t.Fatal("expected journal removed after abort")
	}
}
