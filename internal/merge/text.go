package merge

import (
	"bytes"
	"io"

	"github.com/epiclabs-io/diff3"

	"github.com/anthropics/jin/internal/jinerr"
)

// Contribution is one layer's content at a path, in ascending
// precedence order as the caller assembles them.
type Contribution struct {
	LayerRef string
	Content  []byte
}

// BaseResolver looks up the nearest common ancestor's content for a
// pair of layers, or (nil, false) when there is none (two layers
// populated independently use the empty file as base per spec §4.4).
type BaseResolver func(lowRef, highRef string) (content []byte, ok bool)

// MergeText folds an ascending-precedence list of text contributions
// via repeated 3-way merges, producing either the merged bytes or a
// TextConflictError. More than two contributors are resolved as nested
// pairwise blocks: the running merge accumulates on the left, the next
// higher-precedence layer is always the right-hand side, matching
// spec §4.4's "higher-precedence layer always on the right" rule.
func MergeText(contributions []Contribution, resolveBase BaseResolver) ([]byte, error) {
	if len(contributions) == 0 {
		return nil, nil
	}
	acc := contributions[0].Content
	accRef := contributions[0].LayerRef
	conflicted := false
	for i := 1; i < len(contributions); i++ {
		next := contributions[i]
		var base []byte
		if resolveBase != nil {
			if b, ok := resolveBase(accRef, next.LayerRef); ok {
				base = b
			}
		}
		merged, c, err := merge3(acc, base, next.Content, accRef, next.LayerRef)
		if err != nil {
			return nil, err
		}
		if c {
			conflicted = true
		}
		acc = merged
		accRef = next.LayerRef
	}
	if conflicted {
		return acc, &jinerr.TextConflictError{Path: "", Regions: nil}
	}
	return acc, nil
}

// merge3 runs a single 3-way merge of (low, base, high), labeling any
// conflict markers with the contributing layers' ref paths rather than
// generic ours/theirs labels. Returns the merged (or marker-laden)
// bytes and whether a conflict occurred.
func merge3(low, base, high []byte, lowLabel, highLabel string) ([]byte, bool, error) {
	result, err := diff3.Merge(
		bytes.NewReader(low),
		bytes.NewReader(base),
		bytes.NewReader(high),
		true,
		lowLabel,
		highLabel,
	)
	if err != nil {
		return nil, false, err
	}
	merged, err := io.ReadAll(result.Result)
	if err != nil {
		return nil, false, err
	}
	return merged, result.Conflicts, nil
}

// DetectCollision reports whether two layers' byte content for the
// same path differ. Identical hashes/content are a no-op — no merge
// is needed even with multiple layers holding the path.
func DetectCollision(contents [][]byte) bool {
	if len(contents) < 2 {
		return false
	}
	first := contents[0]
	for _, c := range contents[1:] {
		if !bytes.Equal(first, c) {
			return true
		}
	}
	return false
}
