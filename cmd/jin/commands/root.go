// Package commands wires Jin's core packages (objstore, layer, staging,
// apply, jctx, recovery, repair, drift, dag) into a Cobra CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.0.1"
	BuildTime = "dev"
	GitCommit = "unknown"
)

var rootCmd = newRootCmd()

type registrar func(*cobra.Command)

var registrars []registrar

func register(r registrar) {
	registrars = append(registrars, r)
	if rootCmd != nil {
		r(rootCmd)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jin",
		Short: "Jin - phantom configuration layering for your project",
		Long: `Jin keeps multiple overlapping content-addressed views ("layers") of a
project's configuration files and materialises a workspace by merging
whichever subset of them the active (mode, scope, project) context
selects, in a fixed nine-level precedence order.

It provides:
  - Nine-variant layer precedence lattice, versioned as commit chains
  - Atomic multi-ref transactions backed by a write-ahead log
  - Format-aware three-way merge (structured JSON/YAML/TOML/INI, text, binary)
  - A staging index routing pending changes to their target layer
  - Crash recovery and repair of drifted workspace state`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	return cmd
}

// NewRootCmd rebuilds a fresh root command applying every registered
// subcommand. Used by tests that need an isolated command tree.
func NewRootCmd() *cobra.Command {
	cmd := newRootCmd()
	for _, r := range registrars {
		r(cmd)
	}
	return cmd
}

func Execute() error {
	if len(os.Args) > 1 {
		rootCmd.SetArgs(os.Args[1:])
	}
	return rootCmd.Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jin version %s\n", Version)
			fmt.Printf("  build time: %s\n", BuildTime)
			fmt.Printf("  git commit: %s\n", GitCommit)
		},
	}
}

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newVersionCmd()) })
}
