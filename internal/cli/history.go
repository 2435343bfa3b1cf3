package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stale-cleaner/internal/database"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath     string
		recent     int
		root       string
		summary    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the deletion history database",
		Example: `  stale-cleaner history --recent 10           # 10 most recent deletions
  stale-cleaner history --root /local/work     # everything removed below /local/work
  stale-cleaner history --summary --json       # totals as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if recent <= 0 && !summary && root == "" {
				return newUsageError("one of --recent, --root or --summary is required")
			}

			db, err := database.NewDeletionDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()

			if summary {
				s, err := db.GetSummary()
				if err != nil {
					return fmt.Errorf("get summary: %w", err)
				}
				if jsonOutput {
					return writeJSON(out, s)
				}
				printSummary(out, s)
				return nil
			}

			var records []database.DeletionRecord
			if root != "" {
				records, err = db.GetDeletionsByRoot(root)
			} else {
				records, err = db.GetRecentDeletions(recent)
			}
			if err != nil {
				return fmt.Errorf("query deletions: %w", err)
			}
			if jsonOutput {
				if records == nil {
					records = []database.DeletionRecord{}
				}
				return writeJSON(out, records)
			}
			printRecords(out, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "/var/lib/stale-cleaner/deletions.db", "Path to deletion database")
	cmd.Flags().IntVar(&recent, "recent", 0, "Show N most recent deletions")
	cmd.Flags().StringVar(&root, "root", "", "Show deletions below this cleanup root")
	cmd.Flags().BoolVar(&summary, "summary", false, "Show totals")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, s *database.Summary) {
	fmt.Fprintf(w, "Files Deleted:        %d\n", s.FilesDeleted)
	fmt.Fprintf(w, "Directories Deleted:  %d\n", s.DirsDeleted)
	fmt.Fprintf(w, "Errors:               %d\n", s.Errors)
	fmt.Fprintf(w, "Space Freed:          %s\n", formatBytes(s.BytesFreed))

	if len(s.BytesByRoot) == 0 {
		return
	}
	roots := make([]string, 0, len(s.BytesByRoot))
	for r := range s.BytesByRoot {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	fmt.Fprintln(w, "\nBy Root:")
	for _, r := range roots {
		fmt.Fprintf(w, "  %-30s %s\n", r, formatBytes(s.BytesByRoot[r]))
	}
}

func printRecords(w io.Writer, records []database.DeletionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTimestamp\tAction\tType\tSize\tAge\tThreshold\tPath")
	_, _ = fmt.Fprintln(tw, "--\t---------\t------\t----\t----\t---\t---------\t----")

	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Action,
			r.ObjectType,
			formatBytes(r.Size),
			formatAge(time.Duration(r.AgeSeconds)*time.Second),
			formatAge(time.Duration(r.ThresholdSeconds)*time.Second),
			r.Path,
		)
	}
	_ = tw.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
