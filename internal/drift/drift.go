// Package drift computes the byte-level change summary between the
// manifest apply last materialized and the workspace's current files,
// used for jin status's human-readable "+N ~M -K (size)" line.
package drift

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/manifest"
)

// Report describes the change between a base manifest and the current
// workspace.
type Report struct {
	FilesAdded    []string `json:"files_added"`
	FilesModified []string `json:"files_modified"`
	FilesDeleted  []string `json:"files_deleted"`
	BytesChanged  int64    `json:"bytes_changed"`
}

// Compute generates the current workspace's manifest and diffs it
// against baseManifest.
func Compute(root string, baseManifest *manifest.Manifest) (*Report, error) {
	current, err := manifest.Generate(root, false)
	if err != nil {
		return nil, fmt.Errorf("failed to generate current manifest: %w", err)
	}

	added, modified, deleted := manifest.Diff(baseManifest, current)
	bytesChanged := calculateBytesChanged(baseManifest, current, added, modified, deleted)

	return &Report{
		FilesAdded:    added,
		FilesModified: modified,
		FilesDeleted:  deleted,
		BytesChanged:  bytesChanged,
	}, nil
}

const snapshotFileName = "last_applied_manifest.json"

func snapshotPath(stateDir string) string {
	return filepath.Join(stateDir, snapshotFileName)
}

// SaveManifestSnapshot persists the manifest apply just materialized,
// so a later jin status can diff the workspace against it.
func SaveManifestSnapshot(stateDir string, m *manifest.Manifest) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(snapshotPath(stateDir), data, 0644); err != nil {
		return jinerr.IO("write manifest snapshot", snapshotPath(stateDir), err)
	}
	return nil
}

// LoadManifestSnapshot loads the manifest saved by the most recent
// apply, or nil if none has run yet.
func LoadManifestSnapshot(stateDir string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(snapshotPath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, jinerr.IO("read manifest snapshot", snapshotPath(stateDir), err)
	}
	return manifest.FromJSON(data)
}

// HasChanges returns true if there are any changes.
func (r *Report) HasChanges() bool {
	return len(r.FilesAdded) > 0 || len(r.FilesModified) > 0 || len(r.FilesDeleted) > 0
}

// TotalChanges returns the total number of changed files.
func (r *Report) TotalChanges() int {
	return len(r.FilesAdded) + len(r.FilesModified) + len(r.FilesDeleted)
}

// ToJSON converts the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatSummary returns a human-readable one-line summary.
func (r *Report) FormatSummary() string {
	if !r.HasChanges() {
		return "No changes"
	}
	return fmt.Sprintf("+%d ~%d -%d (%s)",
		len(r.FilesAdded),
		len(r.FilesModified),
		len(r.FilesDeleted),
		formatBytes(r.BytesChanged))
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	const k = 1024
	sizes := []string{"B", "KB", "MB", "GB"}
	i := 0
	fb := float64(bytes)
	for fb >= k && i < len(sizes)-1 {
		fb /= k
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, sizes[i])
	}
	return fmt.Sprintf("%.1f %s", fb, sizes[i])
}

func calculateBytesChanged(base, current *manifest.Manifest, added, modified, deleted []string) int64 {
	var bytesChanged int64

	currentMap := make(map[string]manifest.FileEntry)
	for _, f := range current.Files {
		currentMap[f.Path] = f
	}
	baseMap := make(map[string]manifest.FileEntry)
	for _, f := range base.Files {
		baseMap[f.Path] = f
	}

	for _, path := range added {
		if f, ok := currentMap[path]; ok {
			bytesChanged += f.Size
		}
	}

	for _, path := range modified {
		curr, currOk := currentMap[path]
		baseF, baseOk := baseMap[path]
		if currOk && baseOk {
			if curr.Size > baseF.Size {
				bytesChanged += curr.Size - baseF.Size
			} else {
				bytesChanged += baseF.Size - curr.Size
			}
		} else if currOk {
			bytesChanged += curr.Size
		}
	}

	for _, path := range deleted {
		if f, ok := baseMap[path]; ok {
			bytesChanged += f.Size
		}
	}

	return bytesChanged
}
