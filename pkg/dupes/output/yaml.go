package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Groups []yamlGroup `yaml:"groups"`
	Stats  yamlStats   `yaml:"stats"`
	Meta   yamlMeta    `yaml:"meta"`
}

// yamlGroup represents a duplicate group in YAML output.
type yamlGroup struct {
	ID          int        `yaml:"id"`
	Fingerprint string     `yaml:"fingerprint"`
	Algorithm   string     `yaml:"algorithm"`
	Size        int64      `yaml:"size"`
	SizeHuman   string     `yaml:"size_human"`
	Wasted      int64      `yaml:"wasted"`
	WastedHuman string     `yaml:"wasted_human"`
	Files       []yamlFile `yaml:"files"`
}

// yamlFile represents a group member in YAML output.
type yamlFile struct {
	Path      string    `yaml:"path"`
	Size      int64     `yaml:"size"`
	SizeHuman string    `yaml:"size_human"`
	ModTime   time.Time `yaml:"mod_time,omitempty"`
	Age       string    `yaml:"age,omitempty"`
	Keep      bool      `yaml:"keep"`
}

// yamlStats represents scan statistics in YAML output.
type yamlStats struct {
	FilesSeen   int64  `yaml:"files_seen"`
	SizeGroups  int    `yaml:"size_groups"`
	Candidates  int    `yaml:"candidates"`
	BytesHashed int64  `yaml:"bytes_hashed"`
	CacheHits   int64  `yaml:"cache_hits"`
	CacheMisses int64  `yaml:"cache_misses"`
	Duration    string `yaml:"duration"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	Roots          []string `yaml:"roots"`
	Algorithm      string   `yaml:"algorithm"`
	TotalGroups    int      `yaml:"total_groups"`
	DuplicateFiles int      `yaml:"duplicate_files"`
	WastedSpace    int64    `yaml:"wasted_space"`
	Warnings       []string `yaml:"warnings,omitempty"`
	Interrupted    bool     `yaml:"interrupted"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Result to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Result) yamlOutput {
	groups := make([]yamlGroup, len(r.Groups))
	for i, g := range r.Groups {
		files := make([]yamlFile, len(g.Files))
		for j, file := range g.Files {
			files[j] = yamlFile{
				Path:      file.Path,
				Size:      file.Size,
				SizeHuman: file.SizeHuman,
				ModTime:   file.ModTime,
				Age:       formatDurationString(file.Age),
				Keep:      file.Keep,
			}
		}
		groups[i] = yamlGroup{
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

	stats := yamlStats{
		FilesSeen:   r.Stats.FilesSeen,
		SizeGroups:  r.Stats.SizeGroups,
		Candidates:  r.Stats.Candidates,
		BytesHashed: r.Stats.BytesHashed,
		CacheHits:   r.Stats.CacheHits,
		CacheMisses: r.Stats.CacheMisses,
		Duration:    formatDurationString(r.Stats.Duration),
	}

	meta := yamlMeta{
		Roots:          r.Roots,
		Algorithm:      r.Algorithm,
		TotalGroups:    r.TotalGroups,
		DuplicateFiles: r.DuplicateFiles(),
		WastedSpace:    r.Wasted(),
		Warnings:       r.Warnings,
		Interrupted:    r.Interrupted,
	}

	return yamlOutput{
		Groups: groups,
		Stats:  stats,
		Meta:   meta,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
