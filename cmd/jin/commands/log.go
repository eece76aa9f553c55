package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/dag"
	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newLogCmd()) })
}

func newLogCmd() *cobra.Command {
	var layerKind, mode, scope, project string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show a layer's commit history as a graph",
		Long: `Defaults to the highest-precedence layer applicable to the active
context; pass --layer (plus --mode/--scope/--project as needed) to
view a specific layer's chain instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openReading()
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}

			var l layer.Layer
			if layerKind == "" {
				l, err = highestApplicableLayer(ctx)
			} else {
				l, err = layerFromFlags(ctx, layerKind, mode, scope, project)
			}
			if err != nil {
				return err
			}
			refPath, err := layer.RefPath(l)
			if err != nil {
				return err
			}
			head, err := w.Store().ResolveRef(refPath)
			if err != nil {
				return err
			}
			if head == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no commits yet\n", refPath)
				return nil
			}

			dist, err := w.Store().CommitAncestors(head)
			if err != nil {
				return err
			}
			snaps := make(map[string]*dag.CommitInfo, len(dist))
			for id := range dist {
				commit, err := w.Store().ReadCommit(id)
				if err != nil {
					continue
				}
				snaps[id] = &dag.CommitInfo{ID: id, ParentIDs: commit.Parents, CreatedAt: commit.Timestamp}
			}

			ordered := dag.TopoSort([]string{head}, snaps)
			renderer := dag.NewGraphRenderer()
			renderer.Colorize = true
			out := cmd.OutOrStdout()
			for _, c := range ordered {
				row := renderer.NextRow(c.ID, c.ParentIDs)
				for _, line := range row.PreLines {
					fmt.Fprintln(out, line)
				}
				commit, err := w.Store().ReadCommit(c.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s %s\n", row.NodeLine, ui.Yellow(c.ID[:min(8, len(c.ID))]), ui.Dim(c.CreatedAt))
				fmt.Fprintf(out, "    %s\n", commit.Message)
				for _, line := range row.PostLines {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&layerKind, "layer", "", "layer kind to show (defaults to the highest-precedence applicable layer)")
	cmd.Flags().StringVar(&mode, "mode", "", "mode component (defaults to the active context)")
	cmd.Flags().StringVar(&scope, "scope", "", "scope component (defaults to the active context)")
	cmd.Flags().StringVar(&project, "project", "", "project component (defaults to the active context)")
	return cmd
}
