// Package reftxn implements RefTxn, Jin's atomic multi-reference
// transaction: a write-ahead-logged sequence of ref updates that can be
// redone from a crash at any point after prepare() fsyncs the journal.
package reftxn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

const journalDirName = "journal"
const journalFileName = "active.json"

// State is one of the four journal states. Only Prepared -> Committed
// is irreversible; every other transition may be interrupted by crash.
type State string

const (
	Pending   State = "pending"
	Prepared  State = "prepared"
	Committed State = "committed"
	Aborted   State = "aborted"
)

// Update is one queued ref write: the expected old hash (nil meaning
// "must not exist") and the new hash to set.
type Update struct {
	Path string  `json:"path"`
	Old  *string `json:"old"`
	New  string  `json:"new"`
}

// Journal is the persisted record of an in-flight transaction.
type Journal struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	Message   string    `json:"message"`
	Updates   []Update  `json:"updates"`
}

// Txn is a transaction in progress against a store's ref namespace.
type Txn struct {
	store       *objstore.Store
	journalPath string
	journal     Journal
}

func journalPath(s *objstore.Store) string {
	return filepath.Join(s.Root(), journalDirName, journalFileName)
}

// Begin creates a new journal entry in Pending state. Fails with
// TransactionInProgress if a journal already exists; callers are
// expected to have run recovery first, which clears stale journals.
func Begin(s *objstore.Store, message string) (*Txn, error) {
	path := journalPath(s)
	if existing, err := readJournal(path); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &jinerr.TransactionInProgressError{JournalID: existing.ID}
	}
	j := Journal{
		Version:   1,
		ID:        uuid.NewString(),
		State:     Pending,
		StartedAt: time.Now().UTC(),
		Message:   message,
	}
	t := &Txn{store: s, journalPath: path, journal: j}
	if err := t.persist(); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateRef appends a queued ref update to the transaction.
func (t *Txn) UpdateRef(path string, expectedOld *string, newHash string) {
	t.journal.Updates = append(t.journal.Updates, Update{Path: path, Old: expectedOld, New: newHash})
}

// Prepare validates every queued update's old-hash against the ref's
// current value, serialises and fsyncs the journal, and transitions to
// Prepared. After this returns successfully, recovery will redo the
// transaction if the process dies before Commit.
func (t *Txn) Prepare() error {
	for _, u := range t.journal.Updates {
		current, err := t.store.ResolveRef(u.Path)
		if err != nil {
			return err
		}
		if u.Old == nil {
			if current != "" {
				return fmt.Errorf("ref %s already exists (expected absent)", u.Path)
			}
			continue
		}
		if current != *u.Old {
			return fmt.Errorf("ref %s changed concurrently: expected %s, found %s", u.Path, *u.Old, current)
		}
	}
	t.journal.State = Prepared
	return t.persist()
}

// Commit applies every queued ref update, then marks the journal
// Committed and removes it. The order of individual ref writes is
// unobservable by design — external readers may see intermediate
// states, but a crash at any point is recoverable from the journal.
func (t *Txn) Commit() error {
	if t.journal.State != Prepared {
		return fmt.Errorf("commit requires a prepared transaction, got %s", t.journal.State)
	}
	if err := ApplyUpdates(t.store, t.journal.Updates); err != nil {
		return err
	}
	t.journal.State = Committed
	if err := t.persist(); err != nil {
		return err
	}
	return t.cleanup()
}

// Abort discards the journal without applying any updates. Only valid
// before Prepare; once Prepared, the safe path forward is redo-commit,
// not abort.
func (t *Txn) Abort() error {
	t.journal.State = Aborted
	if err := t.persist(); err != nil {
		return err
	}
	return t.cleanup()
}

func (t *Txn) persist() error {
	data, err := json.MarshalIndent(t.journal, "", "  ")
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(t.journalPath, data, 0644); err != nil {
		return jinerr.IO("write journal", t.journalPath, err)
	}
	return nil
}

func (t *Txn) cleanup() error {
	if err := os.Remove(t.journalPath); err != nil && !os.IsNotExist(err) {
		return jinerr.IO("remove journal", t.journalPath, err)
	}
	return nil
}

// readJournal reads the journal file at path, returning (nil, nil) if
// it doesn't exist.
func readJournal(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, jinerr.IO("read journal", path, err)
	}
	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("corrupt journal at %s: %w", path, err)
	}
	return &j, nil
}

// ReadJournal exposes journal inspection to the recovery package and
// to read-only commands (status/log) that must tolerate observing an
// in-flight transaction.
func ReadJournal(s *objstore.Store) (*Journal, error) {
	return readJournal(journalPath(s))
}

// RemoveJournal deletes the journal file unconditionally; used by
// recovery once a journal's fate (redo or discard) has been decided.
func RemoveJournal(s *objstore.Store) error {
	path := journalPath(s)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return jinerr.IO("remove journal", path, err)
	}
	return nil
}

// ApplyUpdates re-applies every (path, new-hash) pair from a journal.
// Exported so the recovery package can redo a Prepared transaction
// without re-validating old-hashes (idempotent: setting a ref to the
// value it already holds is a no-op).
func ApplyUpdates(s *objstore.Store, updates []Update) error {
	for _, u := range updates {
		if err := s.SetRef(u.Path, u.New); err != nil {
			return err
		}
	}
	return nil
}
