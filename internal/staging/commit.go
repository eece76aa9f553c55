package staging

import (
	"fmt"
	"time"

	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/reftxn"
)

// TxnResult reports the outcome of a staging commit: the new commit
// hash written to each affected layer ref.
type TxnResult struct {
	NewCommits map[string]string // ref path -> new commit hash
}

// Commit groups staged entries by target layer, builds a new tree per
// affected layer from its current head plus the staged changes, and
// issues one RefTxn updating every affected ref atomically. On success
// the index is cleared (spec §4.7).
func Commit(s *objstore.Store, idx *Index, message, authorName, authorEmail string) (TxnResult, error) {
	byLayer := idx.ByLayer()
	if len(byLayer) == 0 {
		return TxnResult{NewCommits: map[string]string{}}, nil
	}

	txn, err := reftxn.Begin(s, message)
	if err != nil {
		return TxnResult{}, err
	}

	result := TxnResult{NewCommits: map[string]string{}}
	now := time.Now().UTC().Format(time.RFC3339)

	for refPath, entries := range byLayer {
		oldHash, err := s.ResolveRef(refPath)
		if err != nil {
			_ = txn.Abort()
			return TxnResult{}, err
		}

		var baseEntries []objstore.TreeEntryInput
		if oldHash != "" {
			commit, err := s.ReadCommit(oldHash)
			if err != nil {
				_ = txn.Abort()
				return TxnResult{}, err
			}
			baseEntries, err = s.WalkTreeFiles(commit.TreeHash)
			if err != nil {
				_ = txn.Abort()
				return TxnResult{}, err
			}
		}

		merged := mergeEntries(baseEntries, entries)

		newTree, err := s.BuildTree(merged)
		if err != nil {
			_ = txn.Abort()
			return TxnResult{}, err
		}

		var parents []string
		if oldHash != "" {
			parents = []string{oldHash}
		}
		newCommit, err := s.Commit(objstore.Commit{
			TreeHash:       newTree,
			Parents:        parents,
			AuthorName:     authorName,
			AuthorEmail:    authorEmail,
			CommitterName:  authorName,
			CommitterEmail: authorEmail,
			Timestamp:      now,
			Message:        message,
		})
		if err != nil {
			_ = txn.Abort()
			return TxnResult{}, err
		}

		var old *string
		if oldHash != "" {
			h := oldHash
			old = &h
		}
		txn.UpdateRef(refPath, old, newCommit)
		result.NewCommits[refPath] = newCommit
	}

	if err := txn.Prepare(); err != nil {
		_ = txn.Abort()
		return TxnResult{}, err
	}
	if err := txn.Commit(); err != nil {
		return TxnResult{}, fmt.Errorf("commit staged changes: %w", err)
	}

	idx.Clear()
	return result, nil
}

// mergeEntries overlays staged changes onto a layer's existing tree
// entries: staged deletes remove the path, staged writes replace or
// add it, everything else is carried over unchanged.
func mergeEntries(base []objstore.TreeEntryInput, staged []Entry) []objstore.TreeEntryInput {
	byPath := make(map[string]objstore.TreeEntryInput, len(base))
	for _, e := range base {
		byPath[e.Path] = e
	}
	for _, e := range staged {
		if e.Delete {
			delete(byPath, e.Path)
			continue
		}
		byPath[e.Path] = objstore.TreeEntryInput{Path: e.Path, Hash: e.ContentHash, Mode: e.Mode}
	}
	out := make([]objstore.TreeEntryInput, 0, len(byPath))
	for _, e := range byPath {
		out = append(out, e)
	}
	return out
}
