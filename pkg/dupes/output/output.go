// Package output provides formatters for displaying duplicate scan
// results in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// FileInfo is one member of a duplicate group, prepared for output
// formatting with computed fields like human-readable size.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable file size (e.g., "1.5 GiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// Age is the time since the file was last modified.
	Age time.Duration `json:"age" yaml:"age"`

	// Keep marks the member selected to survive.
	Keep bool `json:"keep" yaml:"keep"`
}

// GroupInfo is one duplicate group prepared for output formatting.
type GroupInfo struct {
	// ID is the group's stable 1-based position in the result.
	ID int `json:"id" yaml:"id"`

	// Fingerprint is the hex-encoded content fingerprint shared by
	// every member.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`

	// Algorithm is the hash algorithm that produced the fingerprint.
	Algorithm string `json:"algorithm" yaml:"algorithm"`

	// Size is the size of each member in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable member size.
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// Wasted is the bytes reclaimable by keeping one member.
	Wasted int64 `json:"wasted" yaml:"wasted"`

	// WastedHuman is the human-readable reclaimable size.
	WastedHuman string `json:"wasted_human" yaml:"wasted_human"`

	// Files are the members, with exactly one marked Keep.
	Files []FileInfo `json:"files" yaml:"files"`
}

// ScanStats contains statistics about a scan operation.
type ScanStats struct {
	// FilesSeen is the total number of files examined.
	FilesSeen int64 `json:"files_seen" yaml:"files_seen"`

	// SizeGroups is the number of same-size candidate sets.
	SizeGroups int `json:"size_groups" yaml:"size_groups"`

	// Candidates is the number of files that survived the size pass.
	Candidates int `json:"candidates" yaml:"candidates"`

	// BytesHashed is the total bytes read for fingerprinting.
	BytesHashed int64 `json:"bytes_hashed" yaml:"bytes_hashed"`

	// CacheHits is the number of fingerprints served from the cache.
	CacheHits int64 `json:"cache_hits" yaml:"cache_hits"`

	// CacheMisses is the number of fingerprints computed fresh.
	CacheMisses int64 `json:"cache_misses" yaml:"cache_misses"`

	// Duration is the total time taken to complete the scan.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Groups contains all duplicate groups, sorted by wasted space
	// descending.
	Groups []GroupInfo `json:"groups" yaml:"groups"`

	// Stats contains scan statistics.
	Stats ScanStats `json:"stats" yaml:"stats"`

	// Roots are the directories that were scanned.
	Roots []string `json:"roots" yaml:"roots"`

	// Algorithm is the hash algorithm used for fingerprints.
	Algorithm string `json:"algorithm" yaml:"algorithm"`

	// TotalGroups is the number of duplicate groups in the result.
	TotalGroups int `json:"total_groups" yaml:"total_groups"`

	// Warnings contains any warning messages generated during the scan.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Interrupted indicates if the scan was interrupted by the user.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Wasted returns the total bytes reclaimable across all groups.
func (r *Result) Wasted() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Wasted
	}
	return total
}

// DuplicateFiles returns the number of redundant copies across all
// groups, excluding the kept member of each.
func (r *Result) DuplicateFiles() int {
	var total int
	for _, g := range r.Groups {
		if len(g.Files) > 1 {
			total += len(g.Files) - 1
		}
	}
	return total
}

// TotalSize returns the combined size of every file in every group.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Size * int64(len(g.Files))
	}
	return total
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
