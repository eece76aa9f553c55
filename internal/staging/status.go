package staging

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/anthropics/jin/internal/ignore"
	"github.com/anthropics/jin/internal/objstore"
)

// Status is the result of status(): every workspace-relative path
// bucketed into staged, unstaged-modified, or unstaged-added (spec
// §4.7). A path can appear in only one bucket; staged entries take
// priority since they already describe the user's intended change.
type Status struct {
	Staged           []string
	UnstagedModified []string
	UnstagedAdded    []string
}

// layerLookup resolves the path's current committed blob hash by
// checking applicable layers from highest to lowest precedence,
// mirroring the materialised merge's winner-takes-content order.
type layerLookup func(path string) (blobHash string, tracked bool, err error)

// Compute walks root (honoring .jinignore), and for every file not
// staged, compares its content hash against the committed blob the
// layer lookup resolves for that path.
func Compute(root string, idx *Index, lookup layerLookup) (Status, error) {
	st := Status{}
	for path := range idx.Entries {
		st.Staged = append(st.Staged, path)
	}
	sort.Strings(st.Staged)

	matcher, err := ignore.LoadFromDir(root)
	if err != nil {
		return Status{}, err
	}

	err = filepath.Walk(root, func(abs string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if _, staged := idx.Entries[rel]; staged {
			return nil
		}

		content, err := os.ReadFile(abs)
		if err != nil {
			return err
		}
		current := objstore.HashBlob(content)

		committed, tracked, err := lookup(rel)
		if err != nil {
			return err
		}
		if !tracked {
			st.UnstagedAdded = append(st.UnstagedAdded, rel)
		} else if committed != current {
			st.UnstagedModified = append(st.UnstagedModified, rel)
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	sort.Strings(st.UnstagedModified)
	sort.Strings(st.UnstagedAdded)
	return st, nil
}
