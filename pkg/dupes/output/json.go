package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Groups []jsonGroup `json:"groups"`
	Stats  jsonStats   `json:"stats"`
	Meta   jsonMeta    `json:"meta"`
}

// jsonGroup represents a duplicate group in JSON output.
type jsonGroup struct {
	ID          int        `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	Algorithm   string     `json:"algorithm"`
	Size        int64      `json:"size"`
	SizeHuman   string     `json:"size_human"`
	Wasted      int64      `json:"wasted"`
	WastedHuman string     `json:"wasted_human"`
	Files       []jsonFile `json:"files"`
}

// jsonFile represents a group member in JSON output.
type jsonFile struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human"`
	ModTime   time.Time `json:"mod_time,omitempty"`
	Age       string    `json:"age,omitempty"`
	Keep      bool      `json:"keep"`
}

// jsonStats represents scan statistics in JSON output.
type jsonStats struct {
	FilesSeen   int64  `json:"files_seen"`
	SizeGroups  int    `json:"size_groups"`
	Candidates  int    `json:"candidates"`
	BytesHashed int64  `json:"bytes_hashed"`
	CacheHits   int64  `json:"cache_hits"`
	CacheMisses int64  `json:"cache_misses"`
	Duration    string `json:"duration"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Roots          []string `json:"roots"`
	Algorithm      string   `json:"algorithm"`
	TotalGroups    int      `json:"total_groups"`
	DuplicateFiles int      `json:"duplicate_files"`
	WastedSpace    int64    `json:"wasted_space"`
	Warnings       []string `json:"warnings,omitempty"`
	Interrupted    bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with groups, stats, and meta
// sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Result to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Result) jsonOutput {
	groups := make([]jsonGroup, len(r.Groups))
	for i, g := range r.Groups {
		groups[i] = buildJSONGroup(g)
	}

	stats := jsonStats{
		FilesSeen:   r.Stats.FilesSeen,
		SizeGroups:  r.Stats.SizeGroups,
		Candidates:  r.Stats.Candidates,
		BytesHashed: r.Stats.BytesHashed,
		CacheHits:   r.Stats.CacheHits,
		CacheMisses: r.Stats.CacheMisses,
		Duration:    formatDurationString(r.Stats.Duration),
	}

	meta := jsonMeta{
		Roots:          r.Roots,
		Algorithm:      r.Algorithm,
		TotalGroups:    r.TotalGroups,
		DuplicateFiles: r.DuplicateFiles(),
		WastedSpace:    r.Wasted(),
		Warnings:       r.Warnings,
		Interrupted:    r.Interrupted,
	}

	return jsonOutput{
		Groups: groups,
		Stats:  stats,
		Meta:   meta,
	}
}

// buildJSONGroup converts a GroupInfo to the JSON group structure.
func buildJSONGroup(g GroupInfo) jsonGroup {
	files := make([]jsonFile, len(g.Files))
	for i, file := range g.Files {
		files[i] = jsonFile{
			Path:      file.Path,
			Size:      file.Size,
			SizeHuman: file.SizeHuman,
			ModTime:   file.ModTime,
			Age:       formatDurationString(file.Age),
			Keep:      file.Keep,
		}
	}
	return jsonGroup{
		ID:          g.ID,
		Fingerprint: g.Fingerprint,
		Algorithm:   g.Algorithm,
		Size:        g.Size,
		SizeHuman:   g.SizeHuman,
		Wasted:      g.Wasted,
		WastedHuman: g.WastedHuman,
		Files:       files,
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON, one compact
// group object per line. This format is suitable for streaming
// processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, g := range r.Groups {
		data, err := json.Marshal(buildJSONGroup(g))
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
