package output

import (
	"bytes"
)

// PathsFormatter formats output as one doomed file path per line.
// Kept members are omitted, so the output is exactly the set of files
// a clean run would remove, suitable for piping to other tools.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, g := range r.Groups {
		for _, file := range g.Files {
			if file.Keep {
				continue
			}
			w.WriteString(file.Path)
			w.WriteByte('\n')
		}
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter formats output as null-delimited doomed paths.
// It produces paths separated by null bytes (0x00), suitable for use
// with xargs -0 or other tools that support null-delimited input.
// This format safely handles paths containing spaces, newlines, or
// other special characters.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, g := range r.Groups {
		for _, file := range g.Files {
			if file.Keep {
				continue
			}
			w.WriteString(file.Path)
			w.WriteByte(0) // Null byte delimiter
		}
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)
