package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jamesainslie/dupes/pkg/dupes/action"
	"github.com/jamesainslie/dupes/pkg/dupes/audit"
	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/jamesainslie/dupes/pkg/dupes/groups"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [paths...]",
	Short: "Remove duplicate files",
	Long: `Scan for duplicates and act on every redundant copy.

The keeper of each group is chosen by the configured strategy (--strategy);
the other members are recycled, moved, deleted, or replaced with links
(--mode). Permanent deletion additionally requires --force. Every file is
re-checked before it is touched, and every action is recorded in the audit
journal before clean reports success.

Examples:
  dupes clean ~/Downloads                         # Recycle duplicates
  dupes clean --mode move --dest /spare ~/photos  # Move them aside
  dupes clean --mode hardlink --yes ~/music       # Relink without asking
  dupes clean --mode delete --force ~/tmp         # Delete permanently
  dupes clean -n ~/Documents                      # Dry run, report only`,
	Args: cobra.ArbitraryArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringP("mode", "m", "", "what happens to duplicates (recycle, move, delete, hardlink, symlink)")
	cleanCmd.Flags().String("dest", "", "destination folder for move mode")
	cleanCmd.Flags().BoolP("dry-run", "n", false, "report what would happen without touching files")
	cleanCmd.Flags().Bool("force", false, "allow permanent deletion")
	cleanCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	_ = viper.BindPFlag("action.mode", cleanCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("action.dest", cleanCmd.Flags().Lookup("dest"))
	_ = viper.BindPFlag("action.dry_run", cleanCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("force", cleanCmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("yes", cleanCmd.Flags().Lookup("yes"))

	rootCmd.AddCommand(cleanCmd)
}

// runClean scans for duplicates and applies the configured action to
// every doomed member.
func runClean(_ *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}

	mode, err := action.ParseMode(viper.GetString("action.mode"))
	if err != nil {
		return err
	}

	res, _, err := scanForDuplicates(roots)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled, nothing done")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(res.Groups) == 0 {
		printInfo("No duplicates found.")
		return nil
	}

	st := groups.Summarize(res.Groups)
	printInfo("%d duplicate groups, %d redundant copies, %s reclaimable",
		st.Groups, st.Duplicates, types.FormatSize(st.WastedSpace))

	dryRun := viper.GetBool("action.dry_run")
	force := viper.GetBool("force")

	if !dryRun && !viper.GetBool("yes") {
		if !confirmClean(mode, st) {
			printInfo("Aborted.")
			return nil
		}
		if mode == action.ModeDelete {
			// An explicit answer at the prompt is the consent that
			// permanent deletion needs.
			force = true
		}
	}
	if dryRun {
		// A rehearsal deletes nothing, so it does not need --force.
		force = true
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	exec, err := action.New(mode,
		action.WithDestination(viper.GetString("action.dest")),
		action.WithForce(force),
		action.WithDryRun(dryRun),
		action.WithAudit(journal),
	)
	if err != nil {
		return err
	}

	// Handle interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping after the current file...")
		cancel()
	}()

	sum, execErr := exec.Execute(ctx, res.Groups)
	if sum != nil {
		printCleanSummary(sum)
	}
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			printInfo("Clean interrupted; completed actions are in the audit journal")
			return nil
		}
		return execErr
	}

	return nil
}

// confirmClean asks the user to approve the batch. It returns true only
// for an explicit yes.
func confirmClean(mode action.Mode, st groups.Stats) bool {
	var what string
	switch mode {
	case action.ModeRecycle:
		what = fmt.Sprintf("move %d files to the trash", st.Duplicates)
	case action.ModeMove:
		what = fmt.Sprintf("move %d files to %s", st.Duplicates, viper.GetString("action.dest"))
	case action.ModeDelete:
		what = fmt.Sprintf("PERMANENTLY DELETE %d files", st.Duplicates)
	case action.ModeHardlink:
		what = fmt.Sprintf("replace %d files with hard links", st.Duplicates)
	case action.ModeSymlink:
		what = fmt.Sprintf("replace %d files with symlinks", st.Duplicates)
	default:
		what = fmt.Sprintf("act on %d files", st.Duplicates)
	}

	fmt.Printf("About to %s (%s). Proceed? [y/N]: ", what, types.FormatSize(st.WastedSpace))

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printCleanSummary reports the outcome of one batch.
func printCleanSummary(sum *action.Summary) {
	if sum.DryRun {
		printInfo("Dry run: %d of %d files would be processed, %s reclaimable",
			sum.Succeeded, sum.Attempted, types.FormatSize(sum.BytesReclaimed))
	} else {
		printInfo("Processed %d of %d files, %s reclaimed (%d skipped, %d failed) in %s",
			sum.Succeeded, sum.Attempted, types.FormatSize(sum.BytesReclaimed),
			sum.Skipped, sum.Failed, types.FormatDuration(sum.Elapsed))
	}
	printVerbose("Audit batch %s", sum.BatchID)

	for _, fe := range sum.Errors {
		printError("%s: %s", fe.Path, fe.Error)
	}
}

// auditPath resolves the audit journal location.
func auditPath() string {
	if p := viper.GetString("audit.path"); p != "" {
		return p
	}
	return config.DefaultAuditPath()
}

// openJournal opens the audit journal for appending.
func openJournal() (*audit.Writer, error) {
	journal, err := audit.Open(auditPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit journal: %w", err)
	}
	return journal, nil
}
