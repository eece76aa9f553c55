package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
	"github.com/anthropics/jin/internal/staging"
	"github.com/anthropics/jin/internal/workspace"
)

func init() {
	register(func(root *cobra.Command) {
		root.AddCommand(newAddCmd())
		root.AddCommand(newStageCmd())
		root.AddCommand(newUnstageCmd())
	})
}

func newAddCmd() *cobra.Command {
	var layerKind, mode, scope, project string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Stage a single path to an explicit layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			if layerKind == "" {
				return fmt.Errorf("--layer is required")
			}
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}
			l, err := layerFromFlags(ctx, layerKind, mode, scope, project)
			if err != nil {
				return err
			}
			return stagePaths(w, l, args)
		},
	}

	cmd.Flags().StringVar(&layerKind, "layer", "", "target layer kind (global, mode, scope, mode-scope, mode-project, scope-project, mode-scope-project)")
	cmd.Flags().StringVar(&mode, "mode", "", "mode component (defaults to the active context)")
	cmd.Flags().StringVar(&scope, "scope", "", "scope component (defaults to the active context)")
	cmd.Flags().StringVar(&project, "project", "", "project component (defaults to the active context)")
	return cmd
}

func newStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage [paths...]",
		Short: "Stage unstaged changes to the highest-precedence applicable layer",
		Long: `With no arguments, stages every unstaged-modified and unstaged-added
path reported by status to the highest-precedence layer applicable to
the active context. With explicit paths, stages just those.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}
			l, err := highestApplicableLayer(ctx)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				idx, err := staging.Load(w.StateDir())
				if err != nil {
					return err
				}
				lookup, err := staging.NewLayerLookup(w.Store(), ctx)
				if err != nil {
					return err
				}
				st, err := staging.Compute(w.Root(), idx, lookup)
				if err != nil {
					return err
				}
				paths = append(paths, st.UnstagedModified...)
				paths = append(paths, st.UnstagedAdded...)
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to stage")
				return nil
			}
			return stagePaths(w, l, paths)
		},
	}
}

func newUnstageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstage <path>",
		Short: "Remove a path from the staging index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			idx, err := staging.Load(w.StateDir())
			if err != nil {
				return err
			}
			idx.Unstage(args[0])
			return idx.Save(w.StateDir())
		},
	}
}

// stagePaths writes each path's current content to the blob store and
// records it in the staging index against l's ref path.
func stagePaths(w *workspace.Workspace, l layer.Layer, paths []string) error {
	refPath, err := layer.RefPath(l)
	if err != nil {
		return err
	}

	idx, err := staging.Load(w.StateDir())
	if err != nil {
		return err
	}

	for _, p := range paths {
		content, err := w.ReadFile(p)
		if err != nil {
			return err
		}
		full, err := w.ResolvePath(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(full)
		if err != nil {
			return err
		}
		hash, err := w.Store().WriteBlob(content)
		if err != nil {
			return err
		}
		idx.Stage(p, refPath, hash, objstore.TreeEntryMode(info.Mode().Perm()))
	}

	return idx.Save(w.StateDir())
}
