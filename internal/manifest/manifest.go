// Package manifest builds a content-addressed snapshot of a workspace
// directory, used by internal/apply and internal/drift to record and
// compare workspace states. statcache.go adds an optional stat cache that
// skips re-hashing files whose size and mtime are unchanged.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthropics/jin/internal/ignore"
)

// FileEntry represents a single file in the manifest.
type FileEntry struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
	Mode    uint32 `json:"mode"`
	ModTime int64  `json:"mod_time,omitempty"`
}

// Manifest represents a complete workspace snapshot.
type Manifest struct {
	Version string      `json:"version"`
	Files   []FileEntry `json:"files"`
}

// HashFile computes the SHA-256 hash of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Generate creates a manifest for a workspace root, honoring .jinignore.
func Generate(root string, includeModTime bool) (*Manifest, error) {
	return generateWith(root, func(absPath, relPath string, info os.FileInfo) (string, error) {
		return HashFile(absPath)
	}, includeModTime)
}

func generateWith(root string, hashFn func(absPath, relPath string, info os.FileInfo) (string, error), includeModTime bool) (*Manifest, error) {
	matcher, err := ignore.LoadFromDir(root)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version: "1",
		Files:   []FileEntry{},
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if matcher.Match(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		hash, err := hashFn(path, relPath, info)
		if err != nil {
			return err
		}

		entry := FileEntry{
			Path: relPath,
			Hash: hash,
			Size: info.Size(),
			Mode: uint32(info.Mode().Perm()),
		}
		if includeModTime {
			entry.ModTime = info.ModTime().Unix()
		}

		m.Files = append(m.Files, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(m.Files, func(i, j int) bool {
		return m.Files[i].Path < m.Files[j].Path
	})

	return m, nil
}

// ToJSON converts the manifest to canonical JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Hash returns the hex SHA-256 of the manifest's canonical JSON.
func (m *Manifest) Hash() (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FromJSON parses a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Diff compares two manifests and returns added, modified, and deleted paths.
func Diff(base, current *Manifest) (added, modified, deleted []string) {
	baseMap := make(map[string]FileEntry, len(base.Files))
	for _, f := range base.Files {
		baseMap[f.Path] = f
	}

	currentMap := make(map[string]FileEntry, len(current.Files))
	for _, f := range current.Files {
		currentMap[f.Path] = f
	}

	for _, f := range current.Files {
		if baseFile, exists := baseMap[f.Path]; !exists {
			added = append(added, f.Path)
		} else if baseFile.Hash != f.Hash {
			modified = append(modified, f.Path)
		}
	}

	for _, f := range base.Files {
		if _, exists := currentMap[f.Path]; !exists {
			deleted = append(deleted, f.Path)
		}
	}

	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(deleted)

	return added, modified, deleted
}

// TotalSize returns the total size of all files in the manifest.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Size
	}
	return total
}

// FileCount returns the number of files in the manifest.
func (m *Manifest) FileCount() int {
	return len(m.Files)
}
