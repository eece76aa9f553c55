// Package workspace bridges the object store and the user's on-disk
// project directory: safe file I/O, the workspace-attachment tuple,
// and the project-level locking that enforces single-writer access to
// the object store (spec §4.7, §5).
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/jin/internal/jinlock"
	"github.com/anthropics/jin/internal/objstore"
)

const stateDirName = ".jin"

// Workspace is an opened project directory plus the object store its
// layers live in.
type Workspace struct {
	root        string
	store       *objstore.Store
	storeLock   *jinlock.Lock
	projectLock *jinlock.Lock
}

// OpenForWrite opens a workspace for a mutating command (stage,
// commit, apply, resolve, abort, reset). It takes the store's
// exclusive single-writer lock: at most one Jin process may mutate a
// given object store at a time.
func OpenForWrite(root string) (*Workspace, error) {
	s, err := objstore.Open()
	if err != nil {
		return nil, err
	}
	lock, err := jinlock.AcquireStoreLock(s.Root())
	if err != nil {
		return nil, err
	}
	if err := ensureStateDir(root); err != nil {
		lock.Release()
		return nil, err
	}
	return &Workspace{root: root, store: s, storeLock: lock}, nil
}

// OpenForRead opens a workspace for a read-only command (status, log,
// diff). It takes only the shared project lock, so readers never
// block each other and may observe an in-flight transaction — callers
// must tolerate that (spec §5).
func OpenForRead(root string) (*Workspace, error) {
	s, err := objstore.Open()
	if err != nil {
		return nil, err
	}
	lock, err := jinlock.AcquireProjectSharedLock(root)
	if err != nil {
		return nil, err
	}
	if err := ensureStateDir(root); err != nil {
		lock.Release()
		return nil, err
	}
	return &Workspace{root: root, store: s, projectLock: lock}, nil
}

// Close releases whichever lock this workspace holds.
func (w *Workspace) Close() error {
	if w.storeLock != nil {
		w.storeLock.Release()
		w.storeLock = nil
	}
	if w.projectLock != nil {
		w.projectLock.Release()
		w.projectLock = nil
	}
	return nil
}

// Root returns the project's root directory.
func (w *Workspace) Root() string { return w.root }

// Store returns the opened object store.
func (w *Workspace) Store() *objstore.Store { return w.store }

// StateDir returns the workspace-side private state directory
// (<project-root>/.jin), distinct from the object store's own
// directory (which defaults to ~/.jin or $JIN_DIR).
func (w *Workspace) StateDir() string {
	return stateDirPath(w.root)
}

func stateDirPath(root string) string {
	return filepath.Join(root, stateDirName)
}

func ensureStateDir(root string) error {
	if err := os.MkdirAll(stateDirPath(root), 0755); err != nil {
		return fmt.Errorf("failed to create workspace state directory: %w", err)
	}
	return nil
}
