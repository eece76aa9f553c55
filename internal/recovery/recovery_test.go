package recovery

import (
	"testing"

	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/reftxn"
)

func newStore(t *testing.T) *objstore.Store {
	t.Helper()
	s, err := objstore.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunRemovesPendingJournal(t *testing.T) {
	s := newStore(t)
	txn, err := reftxn.Begin(s, "test")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "deadbeef")

	report, err := Run(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.JournalRecovered || report.JournalState != reftxn.Pending {
		t.Fatalf("got %+v", report)
	}
	if j, err := reftxn.ReadJournal(s); err != nil || j != nil {
		t.Fatalf("expected journal removed, got %+v err=%v", j, err)
	}
	if head, _ := s.ResolveRef("refs/jin/layers/global"); head != "" {
		t.Fatalf("expected no ref write for a pending journal, got %s", head)
	}
}

func TestRunRedoesPreparedJournal(t *testing.T) {
	s := newStore(t)
	txn, err := reftxn.Begin(s, "test")
	if err != nil {
		t.Fatal(err)
	}
	txn.UpdateRef("refs/jin/layers/global", nil, "deadbeef")
	if err := txn.Prepare(); err != nil {
		t.Fatal(err)
	}

	report, err := Run(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.JournalState != reftxn.Prepared {
		t.Fatalf("got %+v", report)
	}
	head, err := s.ResolveRef("refs/jin/layers/global")
	if err != nil {
		t.Fatal(err)
	}
	if head != "deadbeef" {
		t.Fatalf("expected redo to apply the ref update, got %s", head)
	}
	if j, err := reftxn.ReadJournal(s); err != nil || j != nil {
		t.Fatalf("expected journal removed, got %+v err=%v", j, err)
	}
}

func TestRunIsIdempotentOnNoJournal(t *testing.T) {
	s := newStore(t)
	report, err := Run(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.JournalRecovered {
		t.Fatal("expected no journal to recover")
	}
}
