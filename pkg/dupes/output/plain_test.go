package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter_Format(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	output := buf.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	// Header plus one row per group member
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "GROUP")
	assert.Contains(t, lines[0], "KEEP")
	assert.Contains(t, lines[0], "SIZE")
	assert.Contains(t, lines[0], "PATH")

	// Keepers are marked, others are not
	assert.Contains(t, lines[1], "keep")
	assert.Contains(t, lines[1], "/photos/img.jpg")
	assert.NotContains(t, lines[2], "keep")
	assert.Contains(t, lines[2], "/backup/img.jpg")
}

func TestPlainFormatter_Format_Empty(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Result{})
	require.NoError(t, err)

	// Just the header
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestPlainFormatter_Registration(t *testing.T) {
	formatter, err := Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, formatter)
}
