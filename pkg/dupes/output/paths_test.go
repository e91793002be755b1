package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFormatter_Format(t *testing.T) {
	formatter := &PathsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	// Only the doomed members, keepers are omitted
	assert.Equal(t, []string{
		"/backup/img.jpg",
		"/tmp/img (copy).jpg",
		"/notes/todo (1).txt",
	}, lines)
}

func TestNullFormatter_Format(t *testing.T) {
	formatter := &NullFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	parts := strings.Split(strings.TrimRight(buf.String(), "\x00"), "\x00")
	assert.Equal(t, []string{
		"/backup/img.jpg",
		"/tmp/img (copy).jpg",
		"/notes/todo (1).txt",
	}, parts)
}

func TestPathsFormatter_Format_Empty(t *testing.T) {
	formatter := &PathsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Result{})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
