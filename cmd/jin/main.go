package main

import (
	"errors"
	"os"

	"github.com/anthropics/jin/cmd/jin/commands"
	"github.com/anthropics/jin/internal/jinerr"
)

func main() {
	if err := commands.Execute(); err != nil {
		if code := commands.ExitCode(err); code != 0 {
			os.Exit(code)
		}
		// Internal I/O and object-store failures exit 2; user errors exit 1.
		var ioErr *jinerr.IOError
		var invErr *jinerr.InvariantError
		var nfErr *jinerr.NotFoundError
		if errors.As(err, &ioErr) || errors.As(err, &invErr) ||
			(errors.As(err, &nfErr) && nfErr.Kind != jinerr.KindPath) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
