package commands

import (
	"github.com/anthropics/jin/internal/recovery"
	"github.com/anthropics/jin/internal/workspace"
)

// openMutating opens the project's workspace for a mutating command,
// runs RecoveryManager, and refuses if the apply is paused unless
// allowPaused is set (resolve, abort and repair pass true, per spec
// §4.8).
func openMutating(allowPaused bool) (*workspace.Workspace, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	w, err := workspace.OpenForWrite(root)
	if err != nil {
		return nil, err
	}
	report, err := recovery.Run(w.Store(), w)
	if err != nil {
		w.Close()
		return nil, err
	}
	if !allowPaused {
		if err := recovery.RefuseIfPaused(report); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// openReading opens the project's workspace for a read-only command.
// Readers never refuse on a paused apply; they just report it.
func openReading() (*workspace.Workspace, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	return workspace.OpenForRead(root)
}
