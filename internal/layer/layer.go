// Package layer implements Jin's nine-variant layer model: the
// precedence lattice, ref-path derivation, and the inverse parser used
// by mode/scope/project activation commands.
package layer

import (
	"fmt"
	"strings"
)

// Kind enumerates the nine layer constructors in ascending precedence
// order. The numeric values ARE the precedence: higher wins.
type Kind int

const (
	GlobalBase Kind = iota + 1
	ModeBase
	ScopeBase
	ModeScope
	ModeProject
	ScopeProject
	ModeScopeProject
	UserLocal
	WorkspaceActive
)

func (k Kind) String() string {
	switch k {
	case GlobalBase:
		return "GlobalBase"
	case ModeBase:
		return "ModeBase"
	case ScopeBase:
		return "ScopeBase"
	case ModeScope:
		return "ModeScope"
	case ModeProject:
		return "ModeProject"
	case ScopeProject:
		return "ScopeProject"
	case ModeScopeProject:
		return "ModeScopeProject"
	case UserLocal:
		return "UserLocal"
	case WorkspaceActive:
		return "WorkspaceActive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is a fully-instantiated layer: its kind plus whatever context
// components that kind requires (mode and/or scope and/or project).
type Layer struct {
	Kind    Kind
	Mode    string
	Scope   string
	Project string
}

// Context is the active (mode?, scope?, project?) triple a workspace
// is bound to. Empty string means "not set".
type Context struct {
	Mode    string
	Scope   string
	Project string
}

// Precedence returns the layer's precedence; strictly monotonic across
// the nine variants (higher wins on merge).
func Precedence(k Kind) int { return int(k) }

// IsVersioned reports whether a layer kind has a ref and commit chain.
// False only for UserLocal and WorkspaceActive.
func IsVersioned(k Kind) bool {
	return k != UserLocal && k != WorkspaceActive
}

// hasChildren reports whether a layer kind's ref path may have sibling
// subtrees beneath it in the ref namespace, which forces the
// load-bearing "/_" leaf suffix (see spec §3).
func hasChildren(k Kind) bool {
	switch k {
	case ModeBase, ScopeBase, ModeScope:
		return true
	default:
		return false
	}
}

// scopeSegments renders a scope name's colons as path segments: a
// scope name of "lang:rust" becomes the two segments "lang", "rust".
// A bare scope name with no colon is a single segment.
func scopeSegments(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Split(scope, ":")
}

// RefPath produces the canonical refs/jin/... path for a layer given
// its context. Returns a typed error if a required context component
// is absent. UserLocal and WorkspaceActive have no ref path.
func RefPath(l Layer) (string, error) {
	switch l.Kind {
	case GlobalBase:
		return "refs/jin/layers/global", nil
	case ModeBase:
		if l.Mode == "" {
			return "", fmt.Errorf("ModeBase requires a mode")
		}
		return fmt.Sprintf("refs/jin/layers/mode/%s/_", l.Mode), nil
	case ScopeBase:
		if l.Scope == "" {
			return "", fmt.Errorf("ScopeBase requires a scope")
		}
		return joinSegs("refs/jin/layers/scope", scopeSegments(l.Scope), "_"), nil
	case ModeScope:
		if l.Mode == "" || l.Scope == "" {
			return "", fmt.Errorf("ModeScope requires a mode and a scope")
		}
		return joinSegs(fmt.Sprintf("refs/jin/layers/mode/%s/scope", l.Mode), scopeSegments(l.Scope), "_"), nil
	case ModeProject:
		if l.Mode == "" || l.Project == "" {
			return "", fmt.Errorf("ModeProject requires a mode and a project")
		}
		return fmt.Sprintf("refs/jin/layers/mode/%s/project/%s", l.Mode, l.Project), nil
	case ScopeProject:
		if l.Scope == "" || l.Project == "" {
			return "", fmt.Errorf("ScopeProject requires a scope and a project")
		}
		return joinSegsTail(fmt.Sprintf("refs/jin/layers/scope"), scopeSegments(l.Scope), fmt.Sprintf("project/%s", l.Project)), nil
	case ModeScopeProject:
		if l.Mode == "" || l.Scope == "" || l.Project == "" {
			return "", fmt.Errorf("ModeScopeProject requires a mode, a scope, and a project")
		}
		base := fmt.Sprintf("refs/jin/layers/mode/%s/scope", l.Mode)
		return joinSegsTail(base, scopeSegments(l.Scope), fmt.Sprintf("project/%s", l.Project)), nil
	case UserLocal, WorkspaceActive:
		return "", fmt.Errorf("%s is unversioned and has no ref path", l.Kind)
	default:
		return "", fmt.Errorf("unknown layer kind %v", l.Kind)
	}
}

func joinSegs(prefix string, segs []string, suffix string) string {
	parts := append([]string{prefix}, segs...)
	parts = append(parts, suffix)
	return strings.Join(parts, "/")
}

func joinSegsTail(prefix string, segs []string, tail string) string {
	parts := append([]string{prefix}, segs...)
	parts = append(parts, tail)
	return strings.Join(parts, "/")
}

// ApplicableLayers returns the subset of versioned layers whose
// required context components are present in ctx, in ascending
// precedence order.
func ApplicableLayers(ctx Context) []Layer {
	var out []Layer
	out = append(out, Layer{Kind: GlobalBase})
	if ctx.Mode != "" {
		out = append(out, Layer{Kind: ModeBase, Mode: ctx.Mode})
	}
	if ctx.Scope != "" {
		out = append(out, Layer{Kind: ScopeBase, Scope: ctx.Scope})
	}
	if ctx.Mode != "" && ctx.Scope != "" {
		out = append(out, Layer{Kind: ModeScope, Mode: ctx.Mode, Scope: ctx.Scope})
	}
	if ctx.Mode != "" && ctx.Project != "" {
		out = append(out, Layer{Kind: ModeProject, Mode: ctx.Mode, Project: ctx.Project})
	}
	if ctx.Scope != "" && ctx.Project != "" {
		out = append(out, Layer{Kind: ScopeProject, Scope: ctx.Scope, Project: ctx.Project})
	}
	if ctx.Mode != "" && ctx.Scope != "" && ctx.Project != "" {
		out = append(out, Layer{Kind: ModeScopeProject, Mode: ctx.Mode, Scope: ctx.Scope, Project: ctx.Project})
	}
	return out
}

// ParseLayerSpec is the inverse of RefPath: given a refs/jin/layers/...
// path, reconstructs the Layer it names, reversing the "/_" marker and
// the colon-to-slash rendering of scope names.
func ParseLayerSpec(refPath string) (Layer, error) {
	const prefix = "refs/jin/layers/"
	if !strings.HasPrefix(refPath, prefix) {
		return Layer{}, fmt.Errorf("not a jin layer ref path: %s", refPath)
	}
	rest := strings.TrimPrefix(refPath, prefix)
	segs := strings.Split(rest, "/")
	if len(segs) == 1 && segs[0] == "global" {
		return Layer{Kind: GlobalBase}, nil
	}

	// Strip a trailing "_" leaf marker; its presence/absence disambiguates
	// a *Base/ModeScope layer from a *Project leaf further down.
	trailingUnderscore := len(segs) > 0 && segs[len(segs)-1] == "_"
	if trailingUnderscore {
		segs = segs[:len(segs)-1]
	}

	if len(segs) < 2 {
		return Layer{}, fmt.Errorf("malformed layer ref path: %s", refPath)
	}

	switch segs[0] {
	case "mode":
		mode := segs[1]
		if len(segs) == 2 {
			if !trailingUnderscore {
				return Layer{}, fmt.Errorf("malformed ModeBase ref path: %s", refPath)
			}
			return Layer{Kind: ModeBase, Mode: mode}, nil
		}
		switch segs[2] {
		case "scope":
			scopeSegs, projectIdx := splitScopeRun(segs[3:])
			scope := strings.Join(scopeSegs, ":")
			if projectIdx == -1 {
				if !trailingUnderscore {
					return Layer{}, fmt.Errorf("malformed ModeScope ref path: %s", refPath)
				}
				return Layer{Kind: ModeScope, Mode: mode, Scope: scope}, nil
			}
			rem := segs[3+projectIdx:]
			if len(rem) != 2 || rem[0] != "project" {
				return Layer{}, fmt.Errorf("malformed ModeScopeProject ref path: %s", refPath)
			}
			return Layer{Kind: ModeScopeProject, Mode: mode, Scope: scope, Project: rem[1]}, nil
		case "project":
			if len(segs) != 4 {
				return Layer{}, fmt.Errorf("malformed ModeProject ref path: %s", refPath)
			}
			return Layer{Kind: ModeProject, Mode: mode, Project: segs[3]}, nil
		default:
			return Layer{}, fmt.Errorf("malformed mode ref path: %s", refPath)
		}
	case "scope":
		scopeSegs, projectIdx := splitScopeRun(segs[1:])
		scope := strings.Join(scopeSegs, ":")
		if projectIdx == -1 {
			if !trailingUnderscore {
				return Layer{}, fmt.Errorf("malformed ScopeBase ref path: %s", refPath)
			}
			return Layer{Kind: ScopeBase, Scope: scope}, nil
		}
		rem := segs[1+projectIdx:]
		if len(rem) != 2 || rem[0] != "project" {
			return Layer{}, fmt.Errorf("malformed ScopeProject ref path: %s", refPath)
		}
		return Layer{Kind: ScopeProject, Scope: scope, Project: rem[1]}, nil
	default:
		return Layer{}, fmt.Errorf("unrecognised layer ref path: %s", refPath)
	}
}

// splitScopeRun consumes a run of scope-name segments until it hits
// the fixed keyword "project" (or the end of the slice), returning the
// scope segments and the index of "project" in the input slice (-1 if
// the run extends to the end, meaning no project component follows).
func splitScopeRun(segs []string) (scopeSegs []string, projectIdx int) {
	for i, s := range segs {
		if s == "project" {
			return segs[:i], i
		}
	}
	return segs, -1
}
