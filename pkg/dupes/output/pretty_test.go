package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	output := buf.String()

	// Header should contain scan metadata
	assert.Contains(t, output, "/photos")
	assert.Contains(t, output, "blake3")
	assert.Contains(t, output, "5000 files")

	// Groups should list members with the keeper marked
	assert.Contains(t, output, "Group 1")
	assert.Contains(t, output, "Group 2")
	assert.Contains(t, output, "keep")
	assert.Contains(t, output, "/backup/img.jpg")
	assert.Contains(t, output, "todo (1).txt")
	assert.Contains(t, output, "2.0 MiB")
}

func TestPrettyFormatter_Format_EmptyResult(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	result := &Result{
		Stats:     ScanStats{FilesSeen: 100, Duration: time.Second},
		Roots:     []string{"/home/user"},
		Algorithm: "blake3",
	}

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "No duplicates found")
}

func TestPrettyFormatter_Format_WithWarnings(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	result := sampleResult()
	result.Warnings = []string{"permission denied: /root", "symlink skipped: /link"}

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "permission denied")
	assert.Contains(t, output, "symlink skipped")
}

func TestPrettyFormatter_Format_Interrupted(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	result := sampleResult()
	result.Interrupted = true

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "interrupted")
}

func TestPrettyFormatter_Format_Footer(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	output := buf.String()

	// Footer should carry the group count and total reclaimable space
	assert.Contains(t, output, "Groups:")
	assert.Contains(t, output, "Duplicates:")
	assert.Contains(t, output, "Wasted:")
}

func TestPrettyFormatter_Registration(t *testing.T) {
	// Verify the formatter is registered as "pretty"
	formatter, err := Get("pretty")
	require.NoError(t, err)
	assert.IsType(t, &PrettyFormatter{}, formatter)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{2 * time.Second, "2.0s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.d))
	}
}
