package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Build header
	header := f.formatHeader(r)
	w.WriteString(header)
	w.WriteString("\n")

	// Build group listing
	groups := f.formatGroups(r)
	w.WriteString(groups)

	// Build footer
	footer := f.formatFooter(r)
	w.WriteString(footer)

	// Add warnings if any
	if len(r.Warnings) > 0 {
		warnings := f.formatWarnings(r.Warnings)
		w.WriteString("\n")
		w.WriteString(warnings)
	}

	return nil
}

// formatHeader builds the header box with scan metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	// Roots line
	rootsLabel := LabelStyle.Render("Roots:")
	rootsValue := ValueStyle.Render(strings.Join(r.Roots, ", "))
	lines = append(lines, fmt.Sprintf("%s %s", rootsLabel, rootsValue))

	// Algorithm, scan, and cache info line
	var infoParts []string

	hashLabel := LabelStyle.Render("Hash:")
	hashValue := ValueStyle.Render(r.Algorithm)
	infoParts = append(infoParts, fmt.Sprintf("%s %s", hashLabel, hashValue))

	scannedLabel := LabelStyle.Render("Scanned:")
	scannedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		r.Stats.FilesSeen, formatDuration(r.Stats.Duration)))
	infoParts = append(infoParts, fmt.Sprintf("%s %s", scannedLabel, scannedValue))

	if r.Stats.CacheHits > 0 || r.Stats.CacheMisses > 0 {
		cacheLabel := LabelStyle.Render("Cache:")
		cacheValue := MutedStyle.Render(fmt.Sprintf("%d hits, %d misses",
			r.Stats.CacheHits, r.Stats.CacheMisses))
		infoParts = append(infoParts, fmt.Sprintf("%s %s", cacheLabel, cacheValue))
	}

	lines = append(lines, strings.Join(infoParts, "  "))

	// Interrupted notice
	if r.Interrupted {
		interruptedStyle := WarningStyle.Bold(true)
		lines = append(lines, interruptedStyle.Render("Scan interrupted by user"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatGroups builds the listing of duplicate groups, one block per
// group with the kept member marked.
func (f *PrettyFormatter) formatGroups(r *Result) string {
	if len(r.Groups) == 0 {
		return MutedStyle.Render("  No duplicates found\n")
	}

	var sb strings.Builder

	for i, g := range r.Groups {
		heading := GroupStyle.Render(fmt.Sprintf("Group %d", g.ID))
		detail := MutedStyle.Render(fmt.Sprintf("%d files x %s, %s reclaimable",
			len(g.Files), g.SizeHuman, g.WastedHuman))
		sb.WriteString(fmt.Sprintf("  %s  %s\n", heading, detail))

		for _, file := range g.Files {
			marker := "      "
			pathStr := PathStyle.Render(file.Path)
			if file.Keep {
				marker = KeepStyle.Render("keep  ")
				pathStr = KeepStyle.Render(file.Path)
			}
			sb.WriteString(fmt.Sprintf("    %s%s\n", marker, pathStr))
		}

		if i < len(r.Groups)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	groupsLabel := LabelStyle.Render("Groups:")
	groupsValue := ValueStyle.Render(fmt.Sprintf("%d", r.TotalGroups))
	parts = append(parts, fmt.Sprintf("%s %s", groupsLabel, groupsValue))

	dupsLabel := LabelStyle.Render("Duplicates:")
	dupsValue := ValueStyle.Render(fmt.Sprintf("%d", r.DuplicateFiles()))
	parts = append(parts, fmt.Sprintf("%s %s", dupsLabel, dupsValue))

	wastedLabel := LabelStyle.Render("Wasted:")
	wastedValue := SizeStyle.Render(humanize.IBytes(uint64(r.Wasted())))
	parts = append(parts, fmt.Sprintf("%s %s", wastedLabel, wastedValue))

	// Hints
	hint := MutedStyle.Render("Use -o plain for unformatted output")
	parts = append(parts, hint)

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatDuration formats a time.Duration as a human-friendly string.
func formatDuration(d interface{ Seconds() float64 }) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
