// Package types provides core data types for the dupes duplicate finder.
// It includes structures for file identity, fingerprints, scan progress,
// along with utility functions for parsing and formatting file sizes.
package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// QuickProbeSize is the number of bytes read from each end of a file
// when computing its quick fingerprint. Files at most twice this size
// are read whole.
const QuickProbeSize = 8 * KiB

// FileRecord identifies a file as observed at scan time.
// Size and ModTime are captured so later stages can detect files that
// changed between scanning and acting on them.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes at scan time.
	Size int64 `json:"size"`

	// ModTime is the last modification time at scan time.
	ModTime time.Time `json:"mod_time"`
}

// HumanSize returns the file size formatted as a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB).
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// Algorithm selects the hash function used for full fingerprints.
type Algorithm string

// Supported fingerprint algorithms.
const (
	// AlgoBLAKE3 is the default: cryptographic and fast.
	AlgoBLAKE3 Algorithm = "blake3"

	// AlgoSHA256 is a conservative cryptographic choice.
	AlgoSHA256 Algorithm = "sha256"

	// AlgoSHA1 is kept for interoperability with existing tool output.
	AlgoSHA1 Algorithm = "sha1"

	// AlgoMD5 is kept for interoperability with existing tool output.
	AlgoMD5 Algorithm = "md5"

	// AlgoXXH64 is non-cryptographic; fastest, pair with byte verification
	// when collisions matter.
	AlgoXXH64 Algorithm = "xxh64"
)

// Algorithms lists every supported algorithm in display order.
var Algorithms = []Algorithm{AlgoBLAKE3, AlgoSHA256, AlgoSHA1, AlgoMD5, AlgoXXH64}

// ErrUnknownAlgorithm indicates an algorithm name outside the supported set.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// ParseAlgorithm converts a string to an Algorithm.
// Matching is case-insensitive. Returns ErrUnknownAlgorithm for
// unrecognized names.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blake3":
		return AlgoBLAKE3, nil
	case "sha256", "sha-256":
		return AlgoSHA256, nil
	case "sha1", "sha-1":
		return AlgoSHA1, nil
	case "md5":
		return AlgoMD5, nil
	case "xxh64", "xxhash", "xxhash64":
		return AlgoXXH64, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: blake3, sha256, sha1, md5, xxh64)", ErrUnknownAlgorithm, s)
	}
}

// Fingerprint is a full-content digest. Fingerprints are only comparable
// when produced by the same algorithm.
type Fingerprint []byte

// String returns the fingerprint as lowercase hex.
func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp)
}

// Short returns a truncated hex form for display.
func (fp Fingerprint) Short() string {
	s := fp.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// MarshalJSON encodes the fingerprint as a hex string rather than the
// default base64.
func (fp Fingerprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(fp.String())
}

// UnmarshalJSON decodes a hex string fingerprint.
func (fp *Fingerprint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid fingerprint: %w", err)
	}
	*fp = b
	return nil
}

// QuickKey buckets files after the quick-fingerprint pass.
// Including the size makes cross-size collisions impossible regardless
// of the 64-bit sum.
type QuickKey struct {
	// Size is the file size in bytes.
	Size int64

	// Sum is the xxhash64 of the quick probes.
	Sum uint64
}

// ScanPhase identifies which pass of a scan is running.
type ScanPhase int

// Scan phases in execution order.
const (
	// PhaseEnumerate walks the roots and groups files by size.
	PhaseEnumerate ScanPhase = iota

	// PhaseQuick computes quick fingerprints for size-group members.
	PhaseQuick

	// PhaseFull computes full fingerprints for quick-group members.
	PhaseFull

	// PhaseDone means the scan has finished.
	PhaseDone
)

// String returns a human-readable phase name.
func (p ScanPhase) String() string {
	switch p {
	case PhaseEnumerate:
		return "enumerating"
	case PhaseQuick:
		return "quick hash"
	case PhaseFull:
		return "full hash"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Weight returns the phase's share of overall progress.
// Enumeration is cheap relative to hashing, and quick probes are cheap
// relative to full reads; the weights sum to 1.0.
func (p ScanPhase) Weight() float64 {
	switch p {
	case PhaseEnumerate:
		return 0.10
	case PhaseQuick:
		return 0.30
	case PhaseFull:
		return 0.60
	default:
		return 0
	}
}

// offsetOf returns the cumulative weight of all phases before p.
func offsetOf(p ScanPhase) float64 {
	var off float64
	for q := PhaseEnumerate; q < p; q++ {
		off += q.Weight()
	}
	return off
}

// ScanProgress reports real-time scan progress.
// It provides a snapshot of the current scan state for progress reporting.
type ScanProgress struct {
	// Phase is the pass currently running.
	Phase ScanPhase `json:"phase"`

	// PhaseDone is the number of work units completed in the current phase.
	// Units are files for enumeration and quick hashing, bytes for full hashing.
	PhaseDone int64 `json:"phase_done"`

	// PhaseTotal is the number of work units in the current phase.
	// Zero while the total is still unknown (enumeration).
	PhaseTotal int64 `json:"phase_total"`

	// CurrentPath is the path currently being processed.
	CurrentPath string `json:"current_path"`

	// FilesSeen is the number of files enumerated so far.
	FilesSeen int64 `json:"files_seen"`

	// BytesHashed is the total bytes read for fingerprinting so far.
	BytesHashed int64 `json:"bytes_hashed"`

	// CacheHits is the number of fingerprints served from the cache.
	CacheHits int64 `json:"cache_hits"`

	// CacheMisses is the number of fingerprints that had to be computed.
	CacheMisses int64 `json:"cache_misses"`
}

// Fraction returns overall progress in [0, 1], combining the completed
// phases' weights with the current phase's completion ratio.
func (p ScanProgress) Fraction() float64 {
	if p.Phase >= PhaseDone {
		return 1.0
	}
	frac := offsetOf(p.Phase)
	if p.PhaseTotal > 0 {
		ratio := float64(p.PhaseDone) / float64(p.PhaseTotal)
		if ratio > 1 {
			ratio = 1
		}
		frac += p.Phase.Weight() * ratio
	}
	return frac
}

// ScanError represents a per-file error encountered during scanning.
// It pairs a file path with the error message for debugging and reporting.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "100K", "100k", "100KB", "100KiB"
//   - Megabytes: "50M", "50m", "50MB", "50MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// Decimal values are supported and truncated to the nearest byte.
// Leading and trailing whitespace is ignored.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	// Check for negative values
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Parse the numeric value
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Determine the multiplier based on the suffix
	suffix := strings.ToUpper(matches[2])
	// Remove 'B' or 'IB' suffix to get just the unit letter
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1024) returns "1.0 KiB"
//   - FormatSize(1536*1024) returns "1.5 MiB"
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// FormatDuration renders a duration with sensible precision for reports.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
