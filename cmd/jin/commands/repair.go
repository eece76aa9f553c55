package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/repair"
	"github.com/anthropics/jin/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newRepairCmd()) })
}

func newRepairCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Check and fix JinMap drift, malformed layer refs, and workspace attachment",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openMutating(true)
			if err != nil {
				return err
			}
			defer w.Close()

			var report repair.Report
			if checkOnly {
				report, err = repair.Check(w.Store(), w)
			} else {
				report, err = repair.Repair(w.Store(), w)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Findings) == 0 {
				fmt.Fprintln(out, ui.Green("clean")+": no consistency problems found")
				return nil
			}
			for _, f := range report.Findings {
				fmt.Fprintf(out, "%s: %s\n", ui.Yellow(f.Kind), f.Detail)
			}
			if report.Fixed {
				fmt.Fprintln(out, ui.Green("fixed")+": JinMap rebuilt")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "report findings without fixing anything")
	return cmd
}
