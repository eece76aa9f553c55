package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/conflicts"
	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/ui"
	"github.com/anthropics/jin/internal/workspace"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newDiffCmd()) })
}

func newDiffCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "diff <path>",
		Short: "Show line-level changes to a path between two layers",
		Long: `With --from and --to both given, diffs path's content between those
two layer kinds. With only --to (or neither flag), diffs the
workspace's current file content against --to's committed content
(defaulting --to to the highest-precedence applicable layer).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			path := args[0]

			w, err := openReading()
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}

			var fromContent []byte
			var fromLabel string
			if from == "" {
				fromContent, err = w.ReadFile(path)
				if err != nil {
					return err
				}
				fromLabel = "workspace"
			} else {
				fromContent, fromLabel, err = contentForLayerKind(w, ctx, from, path)
				if err != nil {
					return err
				}
			}

			toKind := to
			if toKind == "" {
				l, err := highestApplicableLayer(ctx)
				if err != nil {
					return err
				}
				toKind = layerKindFlagName(l.Kind)
			}
			toContent, toLabel, err := contentForLayerKind(w, ctx, toKind, path)
			if err != nil {
				return err
			}

			hunks := conflicts.LineDiff(string(fromContent), string(toContent))
			if len(hunks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no differences")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s:\n", ui.Dim(fromLabel), ui.Dim(toLabel))
			for _, h := range hunks {
				fmt.Fprintf(cmd.OutOrStdout(), ui.Yellow("@@ line %d-%d @@")+"\n", h.StartLine, h.EndLine)
				for _, l := range h.FromLines {
					fmt.Fprintln(cmd.OutOrStdout(), ui.Red("-"+l))
				}
				for _, l := range h.ToLines {
					fmt.Fprintln(cmd.OutOrStdout(), ui.Green("+"+l))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "layer kind to diff from (defaults to the workspace file)")
	cmd.Flags().StringVar(&to, "to", "", "layer kind to diff to (defaults to the highest-precedence applicable layer)")
	return cmd
}

// contentForLayerKind resolves kindStr's current committed content at
// path under ctx, returning its bytes and a display label.
func contentForLayerKind(w *workspace.Workspace, ctx layer.Context, kindStr, path string) ([]byte, string, error) {
	l, err := layerFromFlags(ctx, kindStr, "", "", "")
	if err != nil {
		return nil, "", err
	}
	refPath, err := layer.RefPath(l)
	if err != nil {
		return nil, "", err
	}
	commitHash, err := w.Store().ResolveRef(refPath)
	if err != nil {
		return nil, "", err
	}
	if commitHash == "" {
		return nil, refPath, nil
	}
	commit, err := w.Store().ReadCommit(commitHash)
	if err != nil {
		return nil, "", err
	}
	blobHash, mode, ok, err := w.Store().TreeEntry(commit.TreeHash, path)
	if err != nil {
		return nil, "", err
	}
	if !ok || mode == objstore.ModeTree {
		return nil, refPath, nil
	}
	content, err := w.Store().ReadBlob(blobHash)
	if err != nil {
		return nil, "", err
	}
	return content, refPath, nil
}

func layerKindFlagName(k layer.Kind) string {
	switch k {
	case layer.GlobalBase:
		return "global"
	case layer.ModeBase:
		return "mode"
	case layer.ScopeBase:
		return "scope"
	case layer.ModeScope:
		return "mode-scope"
	case layer.ModeProject:
		return "mode-project"
	case layer.ScopeProject:
		return "scope-project"
	case layer.ModeScopeProject:
		return "mode-scope-project"
	default:
		return ""
	}
}
