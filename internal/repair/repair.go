// Package repair implements Jin's consistency checks: JinMap drift,
// malformed layer refs, and detached-workspace detection, either
// reported (--check) or fixed in place.
package repair

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/anthropics/jin/internal/jinmap"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/workspace"
)

// Finding is one consistency problem repair detected.
type Finding struct {
	Kind   string // "jinmap-drift", "malformed-ref", "detached-workspace"
	Detail string
}

// Report is the result of a repair pass.
type Report struct {
	Findings []Finding
	Fixed    bool
}

// Check runs every consistency check read-only, never mutating state.
func Check(s *objstore.Store, w *workspace.Workspace) (Report, error) {
	return run(s, w, false)
}

// Repair runs every check and fixes what it safely can: JinMap drift
// is always safe to fix by rebuilding it from the layer refs' actual
// trees. Malformed refs and a detached workspace are reported but not
// auto-fixed — both require a human decision (delete the ref, or
// re-apply / accept the new heads).
func Repair(s *objstore.Store, w *workspace.Workspace) (Report, error) {
	return run(s, w, true)
}

func run(s *objstore.Store, w *workspace.Workspace, fix bool) (Report, error) {
	var report Report

	refs, err := s.ListRefs("refs/jin/layers/")
	if err != nil {
		return Report{}, err
	}
	for _, ref := range refs {
		if _, err := layer.ParseLayerSpec(ref.Path); err != nil {
			report.Findings = append(report.Findings, Finding{
				Kind:   "malformed-ref",
				Detail: fmt.Sprintf("%s does not parse as a layer ref: %v", ref.Path, err),
			})
		}
	}

	current, err := jinmap.Load(s)
	if err != nil {
		return Report{}, err
	}
	rebuilt, err := jinmap.RebuildAll(s)
	if err != nil {
		return Report{}, err
	}
	if !mapsEqual(current, rebuilt) {
		report.Findings = append(report.Findings, Finding{
			Kind:   "jinmap-drift",
			Detail: "persisted JinMap does not match the layer refs' current trees",
		})
		if fix {
			if err := rebuilt.Save(s); err != nil {
				return Report{}, err
			}
			report.Fixed = true
		}
	}

	if w != nil {
		if err := w.CheckDetached(); err != nil {
			report.Findings = append(report.Findings, Finding{
				Kind:   "detached-workspace",
				Detail: err.Error(),
			})
		}
	}

	return report, nil
}

func mapsEqual(a, b *jinmap.Map) bool {
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for ref, paths := range a.Entries {
		other, ok := b.Entries[ref]
		if !ok {
			return false
		}
		sortedA := append([]string{}, paths...)
		sortedB := append([]string{}, other...)
		sort.Strings(sortedA)
		sort.Strings(sortedB)
		if !reflect.DeepEqual(sortedA, sortedB) {
			return false
		}
	}
	return true
}
