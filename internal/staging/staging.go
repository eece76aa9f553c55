// Package staging implements StagingIndex: the set of pending,
// layer-routed changes a workspace has queued but not yet committed
// to any layer ref (spec §4.7).
package staging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

const indexFileName = "index.json"

// Entry is one pending change: a workspace path routed to a target
// layer ref, with the content hash it will commit and its file mode.
type Entry struct {
	Path        string                 `json:"path"`
	TargetLayer string                 `json:"target_layer"`
	ContentHash string                 `json:"content_hash"`
	Mode        objstore.TreeEntryMode `json:"mode"`
	Delete      bool                   `json:"delete,omitempty"`
}

// Index is the persisted StagingIndex: workspace path -> Entry.
type Index struct {
	Entries map[string]Entry `json:"entries"`
}

func indexPath(stateDir string) string {
	return filepath.Join(stateDir, "staging", indexFileName)
}

// Load reads the persisted StagingIndex, returning an empty one if
// none has been written yet.
func Load(stateDir string) (*Index, error) {
	data, err := os.ReadFile(indexPath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{Entries: map[string]Entry{}}, nil
		}
		return nil, jinerr.IO("read staging index", indexPath(stateDir), err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	if idx.Entries == nil {
		idx.Entries = map[string]Entry{}
	}
	return &idx, nil
}

// Save atomically persists the StagingIndex.
func (idx *Index) Save(stateDir string) error {
	p := indexPath(stateDir)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return jinerr.IO("create staging dir", filepath.Dir(p), err)
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(p, data, 0644); err != nil {
		return jinerr.IO("write staging index", p, err)
	}
	return nil
}

// Stage records path as a pending change routed to targetLayer,
// replacing any existing entry for the same path.
func (idx *Index) Stage(path, targetLayer, contentHash string, mode objstore.TreeEntryMode) {
	idx.Entries[path] = Entry{Path: path, TargetLayer: targetLayer, ContentHash: contentHash, Mode: mode}
}

// StageDelete records that path should be removed from targetLayer on
// the next commit.
func (idx *Index) StageDelete(path, targetLayer string) {
	idx.Entries[path] = Entry{Path: path, TargetLayer: targetLayer, Delete: true}
}

// Unstage discards the pending change for path, if any.
func (idx *Index) Unstage(path string) {
	delete(idx.Entries, path)
}

// Clear discards every pending change, used after a successful commit.
func (idx *Index) Clear() {
	idx.Entries = map[string]Entry{}
}

// Staged returns every pending entry, sorted by path.
func (idx *Index) Staged() []Entry {
	out := make([]Entry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ByLayer groups staged entries by their target layer ref path.
func (idx *Index) ByLayer() map[string][]Entry {
	out := map[string][]Entry{}
	for _, e := range idx.Staged() {
		out[e.TargetLayer] = append(out[e.TargetLayer], e)
	}
	return out
}
