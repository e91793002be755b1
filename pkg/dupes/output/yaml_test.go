package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestYAMLFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &YAMLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	// Should be valid YAML
	var parsed map[string]interface{}
	err = yaml.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	assert.Contains(t, parsed, "groups")
	assert.Contains(t, parsed, "stats")
	assert.Contains(t, parsed, "meta")

	groups := parsed["groups"].([]interface{})
	require.Len(t, groups, 2)

	group1 := groups[0].(map[string]interface{})
	assert.Equal(t, 1, group1["id"])
	assert.Equal(t, "deadbeef", group1["fingerprint"])

	meta := parsed["meta"].(map[string]interface{})
	assert.Equal(t, 2, meta["total_groups"])
	assert.Equal(t, 3, meta["duplicate_files"])
}

func TestYAMLFormatter_Format_EmptyResult(t *testing.T) {
	formatter := &YAMLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Result{Roots: []string{"/home"}})
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = yaml.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)
}

func TestYAMLFormatter_Registration(t *testing.T) {
	formatter, err := Get("yaml")
	require.NoError(t, err)
	assert.IsType(t, &YAMLFormatter{}, formatter)
}
