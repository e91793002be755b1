// Package config provides configuration management for the dupes duplicate finder.
package config

// Default configuration values for dupes.
const (
	// DefaultMinSize is the minimum file size to consider for duplicate
	// detection. Zero-byte files are excluded by default.
	DefaultMinSize = "1B"

	// DefaultAlgorithm is the full-fingerprint hash algorithm.
	DefaultAlgorithm = "blake3"

	// DefaultStrategy is the keep-selection strategy applied to groups.
	DefaultStrategy = "oldest"

	// DefaultActionMode is what happens to duplicates on clean.
	DefaultActionMode = "recycle"

	// DefaultCacheMaxEntries caps the hash cache before LRU eviction.
	DefaultCacheMaxEntries = 1_000_000

	// DefaultRetentionDays is the default number of days to retain audit batches.
	DefaultRetentionDays = 90

	// DefaultOutputFormat is the report format when none is specified.
	DefaultOutputFormat = "pretty"
)

// DefaultExclusions contains paths that should be excluded from scanning by default.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}
