// Package merge implements Jin's per-file merge engine: structured
// deep-merge for JSON/YAML/TOML/INI, 3-way text merge via diff3 with
// layer-ref-path-labeled conflict markers, and binary conflict
// detection, per spec §4.4.
package merge

import (
	"bytes"
	"fmt"

	"github.com/anthropics/jin/internal/jinerr"
)

// Outcome is the result of merging one path's contributions.
type Outcome struct {
	// Merged holds the final bytes when the merge succeeded cleanly.
	Merged []byte
	// Conflicted is true when Merged instead holds .jinmerge content
	// (marker-laden text, or marker-wrapped binary) that must be
	// written as a <path>.jinmerge sibling rather than the real file.
	Conflicted bool
}

// MergeFile merges an ascending-precedence list of contributions for a
// single path, choosing a strategy by format. Structural incompatibility
// in a structured file is a hard error (*jinerr.StructuralConflictError
// or *jinerr.ParseError), never a textual conflict.
func MergeFile(path string, format Format, contributions []Contribution, resolveBase BaseResolver) (Outcome, error) {
	if len(contributions) == 0 {
		return Outcome{}, nil
	}
	if len(contributions) == 1 {
		return Outcome{Merged: contributions[0].Content}, nil
	}

	contents := make([][]byte, len(contributions))
	for i, c := range contributions {
		contents[i] = c.Content
	}
	if !DetectCollision(contents) {
		// All layers agree byte-for-byte: no merge needed.
		return Outcome{Merged: contributions[0].Content}, nil
	}

	if format == FormatBinary {
		return mergeBinary(path, contributions)
	}
	if format.IsStructured() {
		return mergeStructuredFile(path, format, contributions)
	}
	return mergeTextFile(path, contributions, resolveBase)
}

func mergeStructuredFile(path string, format Format, contributions []Contribution) (Outcome, error) {
	values := make([]interface{}, len(contributions))
	refs := make([]string, len(contributions))
	for i, c := range contributions {
		v, err := Decode(format, c.LayerRef, c.Content)
		if err != nil {
			return Outcome{}, err
		}
		values[i] = v
		refs[i] = c.LayerRef
	}
	merged, err := MergeStructured(values, refs)
	if err != nil {
		if sc, ok := err.(*jinerr.StructuralConflictError); ok {
			sc.Path = path
			return Outcome{}, sc
		}
		return Outcome{}, err
	}
	encoded, err := Encode(format, merged)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Merged: encoded}, nil
}

func mergeTextFile(path string, contributions []Contribution, resolveBase BaseResolver) (Outcome, error) {
	merged, err := MergeText(contributions, resolveBase)
	if err != nil {
		if tc, ok := err.(*jinerr.TextConflictError); ok {
			tc.Path = path
			return Outcome{Merged: merged, Conflicted: true}, tc
		}
		return Outcome{}, err
	}
	return Outcome{Merged: merged}, nil
}

// mergeBinary folds binary contributions pairwise: identical content is
// a no-op, differing content is wrapped in layer-labeled markers the
// same shape as the text conflict format, nesting naturally as the
// fold proceeds so higher-precedence layers always land on the right
// of the outermost block.
func mergeBinary(path string, contributions []Contribution) (Outcome, error) {
	acc := contributions[0].Content
	accLabel := contributions[0].LayerRef
	conflicted := false
	layers := []string{contributions[0].LayerRef}
	for _, c := range contributions[1:] {
		if bytes.Equal(acc, c.Content) {
			continue
		}
		conflicted = true
		layers = append(layers, c.LayerRef)
		acc = wrapConflictMarkers(acc, c.Content, accLabel, c.LayerRef)
		accLabel = c.LayerRef
	}
	if !conflicted {
		return Outcome{Merged: acc}, nil
	}
	return Outcome{Merged: acc, Conflicted: true}, &jinerr.BinaryConflictError{Path: path, Layers: layers}
}

// wrapConflictMarkers produces the standard 7-character conflict
// marker block labeled with layer ref paths instead of generic
// ours/theirs labels, used for the binary-conflict path where the
// diff3 library (which only labels text merges) doesn't apply.
func wrapConflictMarkers(low, high []byte, lowLabel, highLabel string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<<<<<<< %s\n", lowLabel)
	buf.Write(low)
	if len(low) == 0 || low[len(low)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(high)
	if len(high) == 0 || high[len(high)-1] != '\n' {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, ">>>>>>> %s\n", highLabel)
	return buf.Bytes()
}
