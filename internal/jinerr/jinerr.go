// Package jinerr defines the typed error kinds used across Jin's core
// packages (spec §7). Kinds are plain struct types rather than an enum
// so callers can attach kind-specific fields and still unwrap to the
// underlying cause with errors.Is/errors.As.
package jinerr

import "fmt"

// IOError wraps any filesystem/syscall failure. It always carries the
// path that was being operated on so the CLI can report it.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Path: path, Op: op, Err: err}
}

// Kind distinguishes what sort of thing was missing.
type Kind int

const (
	KindObject Kind = iota
	KindRef
	KindPath
)

// NotFoundError reports a missing object, ref, or path where a read
// expected presence.
type NotFoundError struct {
	Kind Kind
	What string
}

func (e *NotFoundError) Error() string {
	var kind string
	switch e.Kind {
	case KindObject:
		kind = "object"
	case KindRef:
		kind = "ref"
	default:
		kind = "path"
	}
	return fmt.Sprintf("%s not found: %s", kind, e.What)
}

func NotFound(kind Kind, what string) error {
	return &NotFoundError{Kind: kind, What: what}
}

// ParseError reports a structured file that failed its format parser.
type ParseError struct {
	Format  string
	Layer   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s) in layer %s: %s", e.Format, e.Layer, e.Message)
}

// StructuralConflictError reports two layers holding irreconcilable
// structured values at the same key (e.g. object vs scalar) with no
// null-delete between them.
type StructuralConflictError struct {
	Path      string
	LayerLow  string
	LayerHigh string
	Message   string
}

func (e *StructuralConflictError) Error() string {
	return fmt.Sprintf("structural conflict at %s between %s and %s: %s", e.Path, e.LayerLow, e.LayerHigh, e.Message)
}

// ConflictRegion describes one overlapping hunk in a text merge.
type ConflictRegion struct {
	StartLine int
	EndLine   int
}

// TextConflictError reports a textual 3-way merge with overlapping hunks.
type TextConflictError struct {
	Path    string
	Regions []ConflictRegion
}

func (e *TextConflictError) Error() string {
	return fmt.Sprintf("text conflict in %s (%d region(s))", e.Path, len(e.Regions))
}

// BinaryConflictError reports two or more layers supplying different
// binary content for the same path.
type BinaryConflictError struct {
	Path   string
	Layers []string
}

func (e *BinaryConflictError) Error() string {
	return fmt.Sprintf("binary conflict in %s across %d layer(s)", e.Path, len(e.Layers))
}

// DetachedWorkspaceError reports that the workspace-attachment tuple no
// longer matches the current heads of the layers it names.
type DetachedWorkspaceError struct {
	RefPath string
	OldHash string
	NewHash string
}

func (e *DetachedWorkspaceError) Error() string {
	return fmt.Sprintf("workspace is detached: %s moved from %s to %s", e.RefPath, e.OldHash, e.NewHash)
}

// TransactionInProgressError reports a second begin() while a journal
// already exists and is not stale.
type TransactionInProgressError struct {
	JournalID string
}

func (e *TransactionInProgressError) Error() string {
	return fmt.Sprintf("transaction already in progress: %s", e.JournalID)
}

// StaleLockError is logged, not surfaced as a hard failure — the lock
// was broken and the operation proceeded.
type StaleLockError struct {
	Path string
	PID  int
}

func (e *StaleLockError) Error() string {
	return fmt.Sprintf("stale lock at %s (pid %d no longer alive)", e.Path, e.PID)
}

// PausedApplyError reports a mutating operation attempted while a
// PauseRecord exists.
type PausedApplyError struct {
	Files []string
}

func (e *PausedApplyError) Error() string {
	return fmt.Sprintf("apply is paused on %d unresolved file(s)", len(e.Files))
}

// InvariantError reports an internal consistency violation that should
// be unreachable. Callers that detect one should panic with it rather
// than attempt to recover.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Message)
}
