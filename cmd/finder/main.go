package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

const (
	exitOK          = 0
	exitFatal       = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		code := exitCode(err)
		if code == exitInterrupted {
			fmt.Fprintln(os.Stderr, "Search canceled.")
		} else {
			fmt.Fprintf(os.Stderr, "finder: %v\n", err)
		}
		return code
	}
	return exitOK
}

// exitCode maps a command error to the process status. Warnings never reach
// here; only configuration errors and interruption do.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFatal
	}
}

func newRootCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "finder PATTERN [PATH]",
		Short: "Search file names, directory names and file contents in parallel",
		Long: `finder walks a directory tree on all CPUs and reports every file name,
directory name and content line that matches PATTERN. Ignore files
(.gitignore, .ignore, .finderignore) are honoured in every directory.

Defaults can be set in $XDG_CONFIG_HOME/finder/config.yaml; flags that are
given explicitly take precedence.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, f, args)
		},
	}
	f.register(cmd)
	return cmd
}
