package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/drift"
	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/recovery"
	"github.com/anthropics/jin/internal/staging"
	"github.com/anthropics/jin/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newStatusCmd()) })
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged, unstaged, and drift-since-apply status",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openReading()
			if err != nil {
				return err
			}
			defer w.Close()

			out := cmd.OutOrStdout()

			report, err := recovery.Run(w.Store(), w)
			if err != nil {
				return err
			}
			if report.JournalRecovered {
				fmt.Fprintln(out, ui.Dim("(recovered an in-flight transaction journal)"))
			}
			if report.Paused {
				fmt.Fprintln(out, ui.Yellow("paused apply")+" — unresolved paths:")
				for _, p := range report.ConflictPaths {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}

			ctx, err := jctx.Load(w.StateDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "context: mode=%s scope=%s project=%s\n", orNone(ctx.Mode), orNone(ctx.Scope), orNone(ctx.Project))

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
			printBucket(out, "staged", st.Staged, ui.Green)
			printBucket(out, "unstaged modified", st.UnstagedModified, ui.Yellow)
			printBucket(out, "unstaged added", st.UnstagedAdded, ui.Cyan)

			if base, err := drift.LoadManifestSnapshot(w.StateDir()); err == nil && base != nil {
				rep, err := drift.Compute(w.Root(), base)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "drift since last apply: %s\n", rep.FormatSummary())
			}

			if err := w.CheckDetached(); err != nil {
				fmt.Fprintln(out, ui.Red("detached")+": "+err.Error())
			}

			return nil
		},
	}
}

func printBucket(out io.Writer, label string, paths []string, color func(string) string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", color(label))
	for _, p := range paths {
		fmt.Fprintf(out, "  %s\n", p)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
