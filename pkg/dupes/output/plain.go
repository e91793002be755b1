package output

import (
	"bytes"
	"strconv"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	// Write header
	_, err := tw.Write([]byte("GROUP\tKEEP\tSIZE\tPATH\n"))
	if err != nil {
		return err
	}

	// Write data rows
	for _, g := range r.Groups {
		for _, file := range g.Files {
			keep := ""
			if file.Keep {
				keep = "keep"
			}
			row := strconv.Itoa(g.ID) + "\t" + keep + "\t" + file.SizeHuman + "\t" + file.Path + "\n"
			if _, err := tw.Write([]byte(row)); err != nil {
				return err
			}
		}
	}

	// Flush tabwriter to buffer
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
