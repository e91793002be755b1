package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSVFormatter_Format(t *testing.T) {
	formatter := &TSVFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "GROUP\tKEEP\tSIZE\tPATH", lines[0])
	assert.Equal(t, "1\tkeep\t1.0 MiB\t/photos/img.jpg", lines[1])
	assert.Equal(t, "1\t\t1.0 MiB\t/backup/img.jpg", lines[2])
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := &CSVFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	// Parse back with encoding/csv to prove RFC 4180 compliance
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"GROUP", "KEEP", "SIZE", "PATH"}, records[0])
	assert.Equal(t, []string{"1", "keep", "1.0 MiB", "/photos/img.jpg"}, records[1])
	assert.Equal(t, []string{"2", "", "4.0 KiB", "/notes/todo (1).txt"}, records[5])
}

func TestCSVFormatter_Format_QuotesCommas(t *testing.T) {
	formatter := &CSVFormatter{}
	var buf bytes.Buffer

	result := sampleResult()
	result.Groups[0].Files[1].Path = "/home/user/a,b.txt"

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "/home/user/a,b.txt", records[2][3])
}

func TestMarkdownFormatter_Format(t *testing.T) {
	formatter := &MarkdownFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	output := buf.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "| GROUP | KEEP | SIZE | PATH |", lines[0])
	assert.Contains(t, lines[1], "---")
	assert.Equal(t, "| 1 | keep | 1.0 MiB | /photos/img.jpg |", lines[2])
}

func TestMarkdownFormatter_Format_EscapesPipes(t *testing.T) {
	formatter := &MarkdownFormatter{}
	var buf bytes.Buffer

	result := sampleResult()
	result.Groups[0].Files[1].Path = "/home/user/a|b.txt"

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `a\|b.txt`)
}
