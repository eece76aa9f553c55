package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/ui"
)

// jinStateDirName mirrors workspace.stateDirName; duplicated here since
// that constant is unexported and the CLI needs it before a Workspace
// has been opened, to search upward for an existing project root.
const jinStateDirName = ".jin"

// findProjectRoot walks upward from the current directory looking for
// a ".jin" state directory, returning the first one found.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, jinStateDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a jin workspace (run 'jin init')")
		}
		dir = parent
	}
}

// applyNoColor disables ui styling when --no-color is set or NO_COLOR is
// present. It does not check whether stdout is a terminal.
func applyNoColor(cmd *cobra.Command) {
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor || os.Getenv("NO_COLOR") != "" {
		ui.Disable()
	}
}

// kindFromFlag maps the --layer flag's accepted spellings to a layer.Kind.
func kindFromFlag(s string) (layer.Kind, error) {
	switch s {
	case "global":
		return layer.GlobalBase, nil
	case "mode":
		return layer.ModeBase, nil
	case "scope":
		return layer.ScopeBase, nil
	case "mode-scope":
		return layer.ModeScope, nil
	case "mode-project":
		return layer.ModeProject, nil
	case "scope-project":
		return layer.ScopeProject, nil
	case "mode-scope-project":
		return layer.ModeScopeProject, nil
	default:
		return 0, fmt.Errorf("unknown layer kind %q (want one of: global, mode, scope, mode-scope, mode-project, scope-project, mode-scope-project)", s)
	}
}

// layerFromFlags builds a layer.Layer from an explicit --layer kind plus
// whichever of --mode/--scope/--project it requires, falling back to
// the active context's values when a flag is left empty.
func layerFromFlags(ctx layer.Context, kindStr, mode, scope, project string) (layer.Layer, error) {
	kind, err := kindFromFlag(kindStr)
	if err != nil {
		return layer.Layer{}, err
	}
	if mode == "" {
		mode = ctx.Mode
	}
	if scope == "" {
		scope = ctx.Scope
	}
	if project == "" {
		project = ctx.Project
	}
	return layer.Layer{Kind: kind, Mode: mode, Scope: scope, Project: project}, nil
}

// highestApplicableLayer returns the highest-precedence layer applicable
// to ctx, used as the implicit target for bulk "stage everything" calls.
func highestApplicableLayer(ctx layer.Context) (layer.Layer, error) {
	applicable := layer.ApplicableLayers(ctx)
	if len(applicable) == 0 {
		return layer.Layer{}, fmt.Errorf("no applicable layer for the current context")
	}
	return applicable[len(applicable)-1], nil
}
