// Package apply implements ApplyStateMachine: materialising the merged
// view of a workspace's applicable layers into its files, pausing on
// conflicts with .jinmerge siblings, and resolving or aborting a pause
// (spec §4.5).
package apply

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/anthropics/jin/internal/drift"
	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/jinmap"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/manifest"
	"github.com/anthropics/jin/internal/merge"
	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/workspace"
)

const conflictSuffix = ".jinmerge"

// Result reports what an Apply call did.
type Result struct {
	Clean          bool
	ConflictPaths  []string
	AttachedLayers map[string]string
}

// Apply enumerates ctx's applicable layers, merges every path any of
// them contributes, and materialises the result into the workspace. A
// workspace already Clean and attached to the current layer heads is a
// no-op. A Paused workspace rejects a fresh apply until resolved or
// aborted.
func Apply(w *workspace.Workspace, ctx layer.Context) (Result, error) {
	stateDir := w.StateDir()

	if existing, err := LoadPauseRecord(stateDir); err != nil {
		return Result{}, err
	} else if existing != nil {
		return Result{}, &jinerr.PausedApplyError{Files: existing.ConflictPaths}
	}

	layers := layer.ApplicableLayers(ctx)
	heads := make(map[string]layerHead, len(layers))
	var refOrder []string
	for _, l := range layers {
		refPath, err := layer.RefPath(l)
		if err != nil {
			continue
		}
		commitHash, err := w.Store().ResolveRef(refPath)
		if err != nil {
			return Result{}, err
		}
		if commitHash == "" {
			continue
		}
		commit, err := w.Store().ReadCommit(commitHash)
		if err != nil {
			return Result{}, err
		}
		heads[refPath] = layerHead{commitHash: commitHash, treeHash: commit.TreeHash}
		refOrder = append(refOrder, refPath)
	}

	newAttachment := make(map[string]string, len(refOrder))
	for _, refPath := range refOrder {
		newAttachment[refPath] = heads[refPath].commitHash
	}

	if clean, err := isNoOp(w, newAttachment); err != nil {
		return Result{}, err
	} else if clean {
		return Result{Clean: true, AttachedLayers: newAttachment}, nil
	}

	m, err := jinmap.Load(w.Store())
	if err != nil {
		return Result{}, err
	}
	for _, refPath := range refOrder {
		if err := m.RefreshFor(w.Store(), refPath, heads[refPath].treeHash); err != nil {
			return Result{}, err
		}
	}

	paths := unionPaths(m, refOrder)

	oldAttachment, err := w.ReadAttachment()
	if err != nil {
		return Result{}, err
	}
	stale, err := staleManagedPaths(w.Store(), oldAttachment, paths)
	if err != nil {
		return Result{}, err
	}

	var conflicts []string
	for _, path := range paths {
		contributions, err := gatherContributions(w.Store(), refOrder, heads, path)
		if err != nil {
			return Result{}, err
		}
		if len(contributions) == 0 {
			continue
		}

		format := merge.DetectFormat(path, contributions[len(contributions)-1].Content)
		resolveBase := baseResolverForPath(w.Store(), path)

		outcome, err := merge.MergeFile(path, format, contributions, resolveBase)
		if outcome.Conflicted {
			if werr := w.WriteFile(path+conflictSuffix, outcome.Merged, 0644); werr != nil {
				return Result{}, werr
			}
			conflicts = append(conflicts, path)
			continue
		}
		if err != nil {
			return Result{}, err
		}
		if werr := w.WriteFile(path, outcome.Merged, 0644); werr != nil {
			return Result{}, werr
		}
	}

	for _, path := range stale {
		if err := w.RemoveFile(path); err != nil {
			return Result{}, err
		}
	}

	if err := m.Save(w.Store()); err != nil {
		return Result{}, err
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		rec := &PauseRecord{ApplyID: uuid.NewString(), ConflictPaths: conflicts, AttachedLayers: newAttachment}
		if err := rec.Save(stateDir); err != nil {
			return Result{}, err
		}
		return Result{Clean: false, ConflictPaths: conflicts}, nil
	}

	if err := w.WriteAttachment(workspace.Attachment(newAttachment)); err != nil {
		return Result{}, err
	}
	if err := snapshotAppliedManifest(w); err != nil {
		return Result{}, err
	}
	return Result{Clean: true, AttachedLayers: newAttachment}, nil
}

// snapshotAppliedManifest records the workspace's current file state so
// a later jin status can report drift since this apply.
func snapshotAppliedManifest(w *workspace.Workspace) error {
	m, err := manifest.Generate(w.Root(), false)
	if err != nil {
		return err
	}
	return drift.SaveManifestSnapshot(w.StateDir(), m)
}

type layerHead struct {
	commitHash string
	treeHash   string
}

// isNoOp reports whether the workspace is already Clean and attached
// to exactly the layer heads apply would produce. Callers must have
// already confirmed no PauseRecord exists.
func isNoOp(w *workspace.Workspace, newAttachment map[string]string) (bool, error) {
	current, err := w.ReadAttachment()
	if err != nil {
		return false, err
	}
	if len(current) != len(newAttachment) {
		return false, nil
	}
	for refPath, hash := range newAttachment {
		if current[refPath] != hash {
			return false, nil
		}
	}
	return true, nil
}

func unionPaths(m *jinmap.Map, refOrder []string) []string {
	set := map[string]struct{}{}
	for _, refPath := range refOrder {
		for _, p := range m.PathsFor(refPath) {
			set[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// staleManagedPaths returns paths previously attached (per oldAttachment's
// layer commits) that no longer appear in the new merged path set, and
// so must be deleted from the workspace.
func staleManagedPaths(s *objstore.Store, oldAttachment workspace.Attachment, newPaths []string) ([]string, error) {
	present := make(map[string]struct{}, len(newPaths))
	for _, p := range newPaths {
		present[p] = struct{}{}
	}

	oldPaths := map[string]struct{}{}
	for _, commitHash := range oldAttachment {
		commit, err := s.ReadCommit(commitHash)
		if err != nil {
			continue
		}
		files, err := s.WalkTreeFiles(commit.TreeHash)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			oldPaths[f.Path] = struct{}{}
		}
	}

	var stale []string
	for p := range oldPaths {
		if _, ok := present[p]; !ok {
			stale = append(stale, p)
		}
	}
	sort.Strings(stale)
	return stale, nil
}

// gatherContributions collects the content every applicable layer
// (ascending precedence) holds at path, skipping layers that don't
// contain it.
func gatherContributions(s *objstore.Store, refOrder []string, heads map[string]layerHead, path string) ([]merge.Contribution, error) {
	var out []merge.Contribution
	for _, refPath := range refOrder {
		hash, mode, ok, err := s.TreeEntry(heads[refPath].treeHash, path)
		if err != nil {
			return nil, err
		}
		if !ok || mode == objstore.ModeTree {
			continue
		}
		content, err := s.ReadBlob(hash)
		if err != nil {
			return nil, err
		}
		out = append(out, merge.Contribution{LayerRef: refPath, Content: content})
	}
	return out, nil
}

// baseResolverForPath looks up the merge-base commit of two layers'
// current heads and, if one exists, the content it held at path. Layer
// commit chains are disjoint by construction (a layer's commits only
// ever parent other commits to that same layer), so this always falls
// back to the empty-base behaviour described in spec §4.4 — it is kept
// as a real lookup rather than a stub so a future layer-forking
// feature (out of scope today) doesn't silently regress text merges.
func baseResolverForPath(s *objstore.Store, path string) merge.BaseResolver {
	return func(lowRef, highRef string) ([]byte, bool) {
		lowHash, err := s.ResolveRef(lowRef)
		if err != nil || lowHash == "" {
			return nil, false
		}
		highHash, err := s.ResolveRef(highRef)
		if err != nil || highHash == "" {
			return nil, false
		}
		base, ok, err := s.MergeBase(lowHash, highHash)
		if err != nil || !ok {
			return nil, false
		}
		commit, err := s.ReadCommit(base)
		if err != nil {
			return nil, false
		}
		blobHash, mode, ok, err := s.TreeEntry(commit.TreeHash, path)
		if err != nil || !ok || mode == objstore.ModeTree {
			return nil, false
		}
		content, err := s.ReadBlob(blobHash)
		if err != nil {
			return nil, false
		}
		return content, true
	}
}

// Resolve consumes resolved .jinmerge files for paths, writing each
// one's content to the real path and removing it from the pause
// record. When the record empties, it is deleted (spec §4.5).
func Resolve(w *workspace.Workspace, paths []string) error {
	rec, err := LoadPauseRecord(w.StateDir())
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no apply is paused")
	}

	for _, path := range paths {
		resolved, err := w.ReadFile(path + conflictSuffix)
		if err != nil {
			return err
		}
		if hasConflictMarkers(resolved) {
			return fmt.Errorf("%s still contains conflict markers", path)
		}
		if err := w.WriteFile(path, resolved, 0644); err != nil {
			return err
		}
		if err := w.RemoveFile(path + conflictSuffix); err != nil {
			return err
		}
		rec.removeConflict(path)
	}

	if len(rec.ConflictPaths) == 0 {
		if err := w.WriteAttachment(workspace.Attachment(rec.AttachedLayers)); err != nil {
			return err
		}
		if err := snapshotAppliedManifest(w); err != nil {
			return err
		}
		return DeletePauseRecord(w.StateDir())
	}
	return rec.Save(w.StateDir())
}

// Abort discards the PauseRecord and every outstanding .jinmerge
// sibling, leaving the rest of the workspace untouched.
func Abort(w *workspace.Workspace) error {
	rec, err := LoadPauseRecord(w.StateDir())
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	for _, path := range rec.ConflictPaths {
		if err := w.RemoveFile(path + conflictSuffix); err != nil {
			return err
		}
	}
	return DeletePauseRecord(w.StateDir())
}

func hasConflictMarkers(content []byte) bool {
	for _, line := range bytes.Split(content, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("<<<<<<< ")) ||
			bytes.HasPrefix(line, []byte(">>>>>>> ")) ||
			bytes.Equal(line, []byte("=======")) {
			return true
		}
	}
	return false
}
