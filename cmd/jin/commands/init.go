package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/workspace"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newInitCmd()) })
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a Jin workspace in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			w, err := workspace.OpenForWrite(root)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			defer w.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "initialized jin workspace in %s\n", w.StateDir())
			return nil
		},
	}
}
