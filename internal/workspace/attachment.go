package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

const attachmentFileName = "attachment"

// Attachment is the workspace-attachment tuple: the commit hash of
// each contributing layer a successful apply recorded itself against.
// RecoveryManager compares this to the layers' current heads to
// detect a detached workspace (spec §4.5, §4.8).
type Attachment map[string]string

func attachmentPath(root string) string {
	return filepath.Join(stateDirPath(root), attachmentFileName)
}

// ReadAttachment loads the persisted attachment tuple, returning an
// empty (non-nil) Attachment if none has been recorded yet.
func (w *Workspace) ReadAttachment() (Attachment, error) {
	data, err := os.ReadFile(attachmentPath(w.root))
	if err != nil {
		if os.IsNotExist(err) {
			return Attachment{}, nil
		}
		return nil, jinerr.IO("read attachment", attachmentPath(w.root), err)
	}
	var a Attachment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// WriteAttachment atomically persists the attachment tuple.
func (w *Workspace) WriteAttachment(a Attachment) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(attachmentPath(w.root), data, 0644); err != nil {
		return jinerr.IO("write attachment", attachmentPath(w.root), err)
	}
	return nil
}

// CheckDetached compares the persisted attachment tuple against the
// current heads of the refs it names. Returns the first mismatch
// found as a *jinerr.DetachedWorkspaceError, or nil if the workspace
// is still attached to every layer it applied.
func (w *Workspace) CheckDetached() error {
	attached, err := w.ReadAttachment()
	if err != nil {
		return err
	}
	for refPath, oldHash := range attached {
		current, err := w.store.ResolveRef(refPath)
		if err != nil {
			return err
		}
		if current != oldHash {
			return &jinerr.DetachedWorkspaceError{RefPath: refPath, OldHash: oldHash, NewHash: current}
		}
	}
	return nil
}
