package cli

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"stale-cleaner/internal/config"
	"stale-cleaner/internal/database"
	"stale-cleaner/internal/logging"
	"stale-cleaner/internal/prune"
	"stale-cleaner/internal/safety"
)

func newCleanupCmd() *cobra.Command {
	var (
		dir     string
		ageStr  string
		marker  string
		dbPath  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup-stale-data",
		Short: "Clean up stale files and directories in a directory (e.g. /local/work or /tmp)",
		Long: `Clean up stale files and directories in the given directory.
The directory itself is never removed, only its contents. It must exist
and be writable. Directories containing a .keep file remain untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				return newUsageError("--dir is required")
			}
			if ageStr == "" {
				return newUsageError("--age is required")
			}
			age, err := config.ParseAge(ageStr)
			if err != nil {
				return &UsageError{Err: err}
			}
			if marker == "" || filepath.Base(marker) != marker {
				return newUsageError("--marker must be a plain file name, got %q", marker)
			}

			root, err := filepath.Abs(dir)
			if err != nil {
				return newUsageError("resolve %s: %v", dir, err)
			}

			validator := safety.NewValidator(nil)
			if err := validator.ValidateRoot(root); err != nil {
				return err
			}
			if err := checkWritable(root); err != nil {
				return err
			}

			logger := logging.Discard()
			if verbose {
				logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags|log.Lmicroseconds)
			}

			var rec prune.Recorder
			if dbPath != "" {
				db, err := database.NewDeletionDB(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				rec = db
			}

			pruner := prune.NewPruner(logger, rec)
			pruner.SetMarker(marker)
			pruner.SetValidator(validator)

			_, err = pruner.Clean(root, age)
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to clean up; the directory itself is kept")
	cmd.Flags().StringVarP(&ageStr, "age", "a", "", "Age threshold for removal (e.g. 7d, 5h, 0s)")
	cmd.Flags().StringVar(&marker, "marker", config.DefaultMarker, "File name that exempts a directory subtree")
	cmd.Flags().StringVar(&dbPath, "db", "", "Record deletions in this SQLite database")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every deletion to stderr")

	return cmd
}

// checkWritable rejects a root the process cannot modify. A missing root is
// left for the pruner to report.
func checkWritable(root string) error {
	err := unix.Access(root, unix.W_OK)
	if err == nil || errors.Is(err, unix.ENOENT) {
		return nil
	}
	return newUsageError("directory %s is not writable: %v", root, err)
}

// formatAge renders whole days as "Nd" and everything else like time.Duration
func formatAge(d time.Duration) string {
	const day = 24 * time.Hour
	if d > 0 && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}
