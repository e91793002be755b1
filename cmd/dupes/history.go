package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/dupes/pkg/dupes/audit"
	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View clean operation history",
	Long: `View the history of clean batches.

The audit journal records every file dupes acted on: what was done, where
the file went, and whether the action succeeded. history lists past
batches; history show displays every file in one batch.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Show details of a specific batch",
	Long:  `Display every recorded action of one batch by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove audit batches older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit     int
	historyOlderThan int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of batches to show")
	historyCleanCmd.Flags().IntVar(&historyOlderThan, "older-than", 0, "remove batches older than this many days (default: configured retention)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists recent batches, newest first.
func runHistory(_ *cobra.Command, _ []string) error {
	batches, err := audit.List(auditPath(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(batches) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'dupes clean [path]' to remove duplicates.")
		return nil
	}

	// Print header
	fmt.Printf("\n%-36s  %-16s  %-8s  %-6s  %-12s\n", "BATCH", "STARTED", "MODE", "FILES", "RECLAIMED")
	fmt.Println(strings.Repeat("-", 88))

	for _, b := range batches {
		mode := b.Mode
		if batchDryRun(&b) {
			mode += " (dry)"
		}
		fmt.Printf("%-36s  %-16s  %-8s  %-6d  %-12s\n",
			b.ID,
			b.Started.Format("2006-01-02 15:04"),
			mode,
			len(b.Records),
			types.FormatSize(batchReclaimed(&b)),
		)
	}

	fmt.Println(strings.Repeat("-", 88))
	fmt.Printf("\nShowing %d batches. Use --limit to see more.\n", len(batches))
	fmt.Println("Use 'dupes history show <batch>' for details on a specific batch.")

	return nil
}

// runHistoryShow displays every record of one batch.
func runHistoryShow(_ *cobra.Command, args []string) error {
	batch, err := audit.Get(auditPath(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}

	fmt.Println("\nBatch Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:        %s\n", batch.ID)
	fmt.Printf("Started:   %s\n", batch.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Mode:      %s\n", batch.Mode)
	fmt.Printf("Files:     %d\n", len(batch.Records))
	fmt.Printf("Reclaimed: %s\n", types.FormatSize(batchReclaimed(batch)))
	if batchDryRun(batch) {
		fmt.Println("Dry run:   yes (no files were touched)")
	}

	if len(batch.Records) == 0 {
		return nil
	}

	fmt.Println("\nFiles:")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-8s  %-12s  %s\n", "OUTCOME", "SIZE", "PATH")
	fmt.Println(strings.Repeat("-", 60))

	// Limit display to 50 files
	limit := 50
	if len(batch.Records) < limit {
		limit = len(batch.Records)
	}

	for i := 0; i < limit; i++ {
		rec := batch.Records[i]
		fmt.Printf("%-8s  %-12s  %s\n", rec.Outcome, types.FormatSize(rec.Size), rec.Path)
		if rec.Target != "" {
			fmt.Printf("%-8s  %-12s  -> %s\n", "", "", rec.Target)
		}
		if rec.Error != "" {
			fmt.Printf("%-8s  %-12s  !! %s\n", "", "", rec.Error)
		}
	}

	if len(batch.Records) > limit {
		fmt.Printf("\n... and %d more files\n", len(batch.Records)-limit)
	}

	return nil
}

// runHistoryClean removes expired batches from the journal.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	days := historyOlderThan
	if days <= 0 {
		days = viper.GetInt("audit.retention_days")
	}
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", days)

	dropped, err := audit.Cleanup(auditPath(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	if dropped == 0 {
		printInfo("Nothing to remove.")
	} else {
		printInfo("Removed %d records.", dropped)
	}
	return nil
}

// batchReclaimed sums the bytes of successful, non-rehearsal actions.
func batchReclaimed(b *audit.Batch) int64 {
	var total int64
	for _, rec := range b.Records {
		if rec.Outcome == audit.OutcomeOK && !rec.DryRun {
			total += rec.Size
		}
	}
	return total
}

// batchDryRun reports whether the batch was a rehearsal.
func batchDryRun(b *audit.Batch) bool {
	return len(b.Records) > 0 && b.Records[0].DryRun
}
