package merge

// LayerTree names one applicable layer's current tree, in ascending
// precedence order.
type LayerTree struct {
	LayerRef string
	TreeHash string
}

// ContainingLayer is one layer found to hold an entry at the queried
// path, with that entry's blob hash.
type ContainingLayer struct {
	LayerRef string
	Hash     string
}

// TreeEntryLookup resolves a path within a tree to a blob hash, or
// ok=false if the tree has no entry there — the same shape as
// objstore.Store.TreeEntry, kept as a function type here so this
// package stays independent of the object store.
type TreeEntryLookup func(treeHash, path string) (hash string, ok bool, err error)

// FindLayersContaining walks each layer's tree and returns the subset
// that holds an entry at path, in the same ascending-precedence order
// as layerTrees. A size-0-or-1 result means no merge is needed; size 2+
// requires collision analysis (see DetectCollision).
func FindLayersContaining(path string, layerTrees []LayerTree, lookup TreeEntryLookup) ([]ContainingLayer, error) {
	var out []ContainingLayer
	for _, lt := range layerTrees {
		hash, ok, err := lookup(lt.TreeHash, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, ContainingLayer{LayerRef: lt.LayerRef, Hash: hash})
	}
	return out, nil
}
