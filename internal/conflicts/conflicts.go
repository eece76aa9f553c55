// Package conflicts finds line-level diff hunks between layer
// contributions, used by `jin diff(layer?, layer?)` to show what
// changed and as a collision pre-scan before a full 3-way merge — if
// two layers' changed line ranges don't overlap at all, a text merge
// of them is guaranteed conflict-free.
package conflicts

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is one contiguous range of lines that differs between two
// pieces of content, with the corresponding lines from each side.
type Hunk struct {
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	FromLines []string `json:"from_lines"`
	ToLines   []string `json:"to_lines"`
}

// LineDiff returns the hunks that differ between from and to.
func LineDiff(from, to string) []Hunk {
	ranges := getChangedLineRanges(from, to)
	hunks := make([]Hunk, 0, len(ranges))
	for _, r := range ranges {
		hunks = append(hunks, Hunk{
			StartLine: r.start,
			EndLine:   r.end,
			FromLines: getLines(from, r.start, r.end),
			ToLines:   getLinesFromDiff(from, to, r),
		})
	}
	return hunks
}

// OverlappingHunks runs a 3-way comparison of a single base against
// two layers' contributions (low and high precedence), returning the
// line ranges both layers changed relative to base. A non-empty result
// means a textual 3-way merge of low and high is likely to conflict
// there; an empty result means their changes land in disjoint regions
// and diff3 can fold them without a marker.
func OverlappingHunks(base, low, high string) []Hunk {
	lowRanges := getChangedLineRanges(base, low)
	highRanges := getChangedLineRanges(base, high)

	var hunks []Hunk
	for _, lr := range lowRanges {
		for _, hr := range highRanges {
			if !rangesOverlap(lr, hr) {
				continue
			}
			hunks = append(hunks, Hunk{
				StartLine: lr.start,
				EndLine:   max(lr.end, hr.end),
				FromLines: getLinesFromDiff(base, low, lr),
				ToLines:   getLinesFromDiff(base, high, hr),
			})
		}
	}
	return hunks
}

type lineRange struct {
	start int
	end   int
}

// getChangedLineRanges returns the line ranges that differ between
// base and modified, merging adjacent changed ranges into one.
func getChangedLineRanges(base, modified string) []lineRange {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, modified, true)

	var ranges []lineRange
	lineNum := 1

	for _, d := range diffs {
		lineCount := strings.Count(d.Text, "\n")

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			lineNum += lineCount
		case diffmatchpatch.DiffDelete, diffmatchpatch.DiffInsert:
			endLine := lineNum + lineCount
			if lineCount == 0 {
				endLine = lineNum
			}
			if len(ranges) > 0 && ranges[len(ranges)-1].end >= lineNum-1 {
				ranges[len(ranges)-1].end = max(ranges[len(ranges)-1].end, endLine)
			} else {
				ranges = append(ranges, lineRange{start: lineNum, end: endLine})
			}
			if d.Type == diffmatchpatch.DiffDelete {
				lineNum += lineCount
			}
		}
	}

	return ranges
}

func rangesOverlap(a, b lineRange) bool {
	return a.start <= b.end && b.start <= a.end
}

// getLines extracts lines from content between start and end (1-indexed).
func getLines(content string, start, end int) []string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) {
		return nil
	}
	return lines[start-1 : end]
}

// getLinesFromDiff extracts the lines of modified at approximately the
// same position as r within base.
func getLinesFromDiff(base, modified string, r lineRange) []string {
	modifiedLines := strings.Split(modified, "\n")
	if r.start < 1 {
		r.start = 1
	}
	end := r.end
	if end > len(modifiedLines) {
		end = len(modifiedLines)
	}
	if r.start > len(modifiedLines) {
		return nil
	}
	return modifiedLines[r.start-1 : end]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
