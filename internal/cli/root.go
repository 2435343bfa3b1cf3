// Package cli defines the Cobra command tree for stale-cleaner.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stale-cleaner/internal/exitcodes"
	"stale-cleaner/internal/safety"
)

// Execute runs the command line in args and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitcodes.Success
	}

	fmt.Fprintf(stderr, "stale-cleaner: %s\n", err) //nolint:errcheck // best-effort stderr write
	return exitCode(err)
}

func exitCode(err error) int {
	var usageErr *UsageError
	var configErr *ConfigError
	switch {
	case errors.As(err, &usageErr), errors.As(err, &configErr):
		return exitcodes.InvalidConfig
	case errors.Is(err, safety.ErrProtectedPath),
		errors.Is(err, safety.ErrOutsideRoot),
		errors.Is(err, safety.ErrTraversal),
		errors.Is(err, safety.ErrInvalidPath):
		return exitcodes.SafetyViolation
	default:
		return exitcodes.RuntimeError
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stale-cleaner",
		Short: "Remove stale files and the directories they leave empty",
		Long: `Remove files older than an age threshold below a directory, then every
directory left empty by that. Directories containing a .keep file are
left untouched together with everything below them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(
		newCleanupCmd(),
		newDaemonCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}
