package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/apply"
	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newApplyCmd()) })
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Materialise the merge of the active context's applicable layers",
		Long: `Merges every path any applicable layer contributes and writes the
result into the workspace. Conflicting paths get a .jinmerge sidecar
and the apply pauses; everything else is still materialised.`,
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
			result, err := apply.Apply(w, ctx)
			if err != nil {
				return err
			}
			if result.Clean {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Green("clean")+": workspace materialised")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Yellow("paused")+": conflicts in:")
			for _, p := range result.ConflictPaths {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", p, ".jinmerge")
			}
			return nil
		},
	}
}
