// Package recovery implements RecoveryManager: the startup sequence
// every command runs before doing work, per spec §4.8. Every step must
// be idempotent — a second crash mid-recovery is expected.
package recovery

import (
	"github.com/anthropics/jin/internal/apply"
	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/reftxn"
	"github.com/anthropics/jin/internal/workspace"
)

// Report summarises what recovery found.
type Report struct {
	JournalRecovered bool
	JournalState     reftxn.State
	Paused           bool
	ConflictPaths    []string
}

// Run executes the first two steps of spec §4.8's detection order:
// redo or discard any TransactionJournal, then note whether a
// PauseRecord exists. It never refuses anything itself — mutating
// commands consult the returned Report (RefuseIfPaused) and,
// separately, call CheckAttachment before a destructive operation.
func Run(s *objstore.Store, w *workspace.Workspace) (Report, error) {
	var report Report

	j, err := reftxn.ReadJournal(s)
	if err != nil {
		return Report{}, err
	}
	if j != nil {
		report.JournalRecovered = true
		report.JournalState = j.State
		switch j.State {
		case reftxn.Prepared:
			if err := reftxn.ApplyUpdates(s, j.Updates); err != nil {
				return Report{}, err
			}
		}
		if err := reftxn.RemoveJournal(s); err != nil {
			return Report{}, err
		}
	}

	if w != nil {
		rec, err := apply.LoadPauseRecord(w.StateDir())
		if err != nil {
			return Report{}, err
		}
		if rec != nil {
			report.Paused = true
			report.ConflictPaths = rec.ConflictPaths
		}
	}

	return report, nil
}

// RefuseIfPaused is step 2 of spec §4.8's policy: commands that would
// mutate the workspace non-interactively refuse while paused, other
// than resolve/abort.
func RefuseIfPaused(report Report) error {
	if report.Paused {
		return &jinerr.PausedApplyError{Files: report.ConflictPaths}
	}
	return nil
}

// CheckAttachment is step 3: destructive operations (reset --hard)
// refuse when the workspace is detached — its recorded
// layer commits no longer match those refs' current heads.
func CheckAttachment(w *workspace.Workspace) error {
	return w.CheckDetached()
}
