package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// TSVFormatter formats output as tab-separated values.
// It produces a simple table with a header row followed by data rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Write header
	w.WriteString("GROUP\tKEEP\tSIZE\tPATH\n")

	// Write data rows
	for _, g := range r.Groups {
		for _, file := range g.Files {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", g.ID, keepMarker(file), file.SizeHuman, file.Path)
		}
	}

	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as comma-separated values with proper quoting.
// It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	// Write header
	if err := writer.Write([]string{"GROUP", "KEEP", "SIZE", "PATH"}); err != nil {
		return err
	}

	// Write data rows
	for _, g := range r.Groups {
		for _, file := range g.Files {
			row := []string{strconv.Itoa(g.ID), keepMarker(file), file.SizeHuman, file.Path}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored Markdown table.
// It produces a table with header, separator, and data rows using | delimiters.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Write header
	w.WriteString("| GROUP | KEEP | SIZE | PATH |\n")

	// Write separator
	w.WriteString("|-------|------|------|------|\n")

	// Write data rows
	for _, g := range r.Groups {
		for _, file := range g.Files {
			// Escape pipes in the path
			escapedPath := escapeMarkdownPipe(file.Path)
			escapedSize := escapeMarkdownPipe(file.SizeHuman)
			fmt.Fprintf(w, "| %d | %s | %s | %s |\n", g.ID, keepMarker(file), escapedSize, escapedPath)
		}
	}

	return nil
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// keepMarker returns the KEEP column value for a group member.
func keepMarker(f FileInfo) string {
	if f.Keep {
		return "keep"
	}
	return ""
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
