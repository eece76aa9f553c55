package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/apply"
	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/recovery"
	"github.com/anthropics/jin/internal/staging"
	"github.com/anthropics/jin/internal/workspace"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newResetCmd()) })
}

func newResetCmd() *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard staged changes, optionally rematerialising the workspace",
		Long: `Clears the staging index. With --hard, additionally discards any
local workspace edits by forcing a fresh apply of the active
context's applicable layers — refused if the workspace is detached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			if hard {
				if err := recovery.CheckAttachment(w); err != nil {
					return err
				}
			}

			idx, err := staging.Load(w.StateDir())
			if err != nil {
				return err
			}
			idx.Clear()
			if err := idx.Save(w.StateDir()); err != nil {
				return err
			}

			if !hard {
				fmt.Fprintln(cmd.OutOrStdout(), "staging cleared")
				return nil
			}

			if err := w.WriteAttachment(workspace.Attachment{}); err != nil {
				return err
			}
			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}
			result, err := apply.Apply(w, ctx)
			if err != nil {
				return err
			}
			if result.Clean {
				fmt.Fprintln(cmd.OutOrStdout(), "staging cleared, workspace rematerialised")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "staging cleared, workspace paused on conflicts")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "also discard local workspace edits")
	return cmd
}
