package staging

import (
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
)

// NewLayerLookup builds a layerLookup over ctx's applicable layers,
// resolving each layer's current head tree once and then answering
// TreeEntry lookups from highest to lowest precedence (the same order
// a materialising merge would fold contributions in, reversed so the
// first hit is the winner).
func NewLayerLookup(s *objstore.Store, ctx layer.Context) (layerLookup, error) {
	layers := layer.ApplicableLayers(ctx)

	type head struct {
		treeHash string
	}
	trees := make([]head, 0, len(layers))
	for _, l := range layers {
		refPath, err := layer.RefPath(l)
		if err != nil {
			continue
		}
		commitHash, err := s.ResolveRef(refPath)
		if err != nil {
			return nil, err
		}
		if commitHash == "" {
			continue
		}
		commit, err := s.ReadCommit(commitHash)
		if err != nil {
			return nil, err
		}
		trees = append(trees, head{treeHash: commit.TreeHash})
	}

	return func(path string) (string, bool, error) {
		for i := len(trees) - 1; i >= 0; i-- {
			hash, mode, ok, err := s.TreeEntry(trees[i].treeHash, path)
			if err != nil {
				return "", false, err
			}
			if ok && mode != objstore.ModeTree {
				return hash, true, nil
			}
		}
		return "", false, nil
	}, nil
}
