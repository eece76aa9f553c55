package commands

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/staging"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newCommitCmd()) })
}

func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit staged changes to their target layers",
		Long: `Groups staged entries by target layer, builds a new tree per affected
layer from its current head plus the staged changes, and issues one
atomic multi-ref transaction. Staging is cleared on success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			if message == "" {
				return fmt.Errorf("-m/--message is required")
			}
			w, err := openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()

			idx, err := staging.Load(w.StateDir())
			if err != nil {
				return err
			}
			if len(idx.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing staged")
				return nil
			}

			name, email := commitIdentity()
			result, err := staging.Commit(w.Store(), idx, message, name, email)
			if err != nil {
				return err
			}
			for refPath, hash := range result.NewCommits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", refPath, hash[:min(8, len(hash))])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

// commitIdentity derives an author identity the same way the shell
// environment would for any other local tool: $JIN_AUTHOR_NAME /
// $JIN_AUTHOR_EMAIL if set, else the OS user's name and a local
// hostname-based placeholder email.
func commitIdentity() (name, email string) {
	if n := os.Getenv("JIN_AUTHOR_NAME"); n != "" {
		name = n
	} else if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	} else {
		name = "unknown"
	}
	if e := os.Getenv("JIN_AUTHOR_EMAIL"); e != "" {
		email = e
	} else {
		host, _ := os.Hostname()
		if host == "" {
			host = "localhost"
		}
		email = name + "@" + host
	}
	return name, email
}
