package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/apply"
	"github.com/anthropics/jin/internal/ui"
)

func init() {
	register(func(root *cobra.Command) {
		root.AddCommand(newResolveCmd())
		root.AddCommand(newAbortCmd())
	})
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <paths...>",
		Short: "Consume resolved .jinmerge sidecars for a paused apply",
		Long: `For each path, reads its .jinmerge sidecar, refuses if it still
contains conflict markers, and otherwise writes its content to the
real path and clears it from the pause record. When every conflicting
path has been resolved, the apply completes and the workspace is
reattached.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(true)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := apply.Resolve(w, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Green("resolved")+": "+fmt.Sprint(len(args))+" path(s)")
			return nil
		},
	}
}

func newAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Discard a paused apply and its .jinmerge sidecars",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(true)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := apply.Abort(w); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "apply aborted")
			return nil
		},
	}
}
