package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// progressUnits is the bar resolution. Scan progress arrives as a
// fraction in [0, 1], so the bar counts ten-thousandths.
const progressUnits = 10_000

// scanBarTemplate renders the phase name, the bar, the overall
// percentage, and a live counter for the current phase.
const scanBarTemplate pb.ProgressBarTemplate = `{{string . "phase" | printf "%-11s"}} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "counts"}}`

// showProgress reports whether a scan should render a progress bar.
// The bar writes to stderr, so it is suppressed when stderr is not a
// terminal or when the user asked for quiet output.
func showProgress() bool {
	if getQuiet() || viper.GetBool("no_progress") {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// newScanBar builds the stderr progress bar used during scans.
func newScanBar() *pb.ProgressBar {
	bar := scanBarTemplate.New(progressUnits)
	bar.SetWriter(os.Stderr)
	bar.SetMaxWidth(110)
	bar.SetRefreshRate(100 * time.Millisecond)
	return bar
}

// barProgress adapts scanner progress snapshots onto the bar.
func barProgress(bar *pb.ProgressBar) func(types.ScanProgress) {
	return func(p types.ScanProgress) {
		bar.Set("phase", p.Phase.String())
		bar.Set("counts", progressCounts(p))
		bar.SetCurrent(int64(p.Fraction() * progressUnits))
	}
}

// progressCounts summarizes a snapshot for the right-hand side of the bar.
func progressCounts(p types.ScanProgress) string {
	switch p.Phase {
	case types.PhaseEnumerate:
		return fmt.Sprintf("%d files", p.FilesSeen)
	case types.PhaseQuick, types.PhaseFull:
		return fmt.Sprintf("%s hashed", types.FormatSize(p.BytesHashed))
	default:
		return ""
	}
}
