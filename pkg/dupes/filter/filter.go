// Package filter decides which files enter duplicate detection.
// It supports filtering by size bounds, glob patterns, and file extensions.
package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Filter defines criteria a file must meet to be considered for
// duplicate detection.
type Filter struct {
	// MinSize is the minimum file size in bytes. Files smaller are excluded.
	MinSize int64

	// MaxSize is the maximum file size in bytes. 0 means unlimited.
	MaxSize int64

	// Extensions contains file extensions to include (e.g., ".mp4", ".mkv").
	// If non-empty, only files with matching extensions are included.
	Extensions []string

	include []glob.Glob
	exclude []glob.Glob
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter) error

// New creates a new Filter with the given options.
// The default filter admits every regular file of at least one byte;
// zero-byte files carry no content worth deduplicating.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		MinSize: 1,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WithMinSize sets the minimum file size in bytes.
// If minSize < 0, it is set to 0 (which admits zero-byte files).
func WithMinSize(minSize int64) Option {
	return func(f *Filter) error {
		if minSize < 0 {
			minSize = 0
		}
		f.MinSize = minSize
		return nil
	}
}

// WithMaxSize sets the maximum file size in bytes. 0 means unlimited.
func WithMaxSize(maxSize int64) Option {
	return func(f *Filter) error {
		if maxSize < 0 {
			maxSize = 0
		}
		f.MaxSize = maxSize
		return nil
	}
}

// WithZeroSize admits zero-byte files. They group together trivially
// without any hashing.
func WithZeroSize() Option {
	return func(f *Filter) error {
		f.MinSize = 0
		return nil
	}
}

// WithInclude sets the include glob patterns. If any patterns are
// specified, files must match at least one to be included.
// Patterns are compiled once here rather than per match.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) error {
		compiled, err := compilePatterns(patterns)
		if err != nil {
			return err
		}
		f.include = compiled
		return nil
	}
}

// WithExclude sets the exclude glob patterns.
// Files matching any pattern are excluded.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) error {
		compiled, err := compilePatterns(patterns)
		if err != nil {
			return err
		}
		f.exclude = compiled
		return nil
	}
}

// WithExtensions sets the file extensions to include.
// Extensions are normalized: lowercase and prefixed with "." if missing.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) error {
		normalized := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		f.Extensions = normalized
		return nil
	}
}

// WithTypeGroups expands type group names to their extensions and sets them.
// Unknown group names are an error so that a typo doesn't silently scan
// everything.
func WithTypeGroups(groups ...string) Option {
	return func(f *Filter) error {
		var extensions []string
		for _, group := range groups {
			exts, ok := TypeGroups[strings.ToLower(group)]
			if !ok {
				return fmt.Errorf("unknown type group %q", group)
			}
			extensions = append(extensions, exts...)
		}
		f.Extensions = extensions
		return nil
	}
}

// compilePatterns compiles glob patterns with '/' as the separator,
// so '*' does not cross directory boundaries but '**' does.
func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Match returns true if the file passes all filter criteria.
// It checks size bounds, extension, exclude patterns, and include
// patterns in that order.
func (f *Filter) Match(path string, size int64) bool {
	if !f.matchSize(size) {
		return false
	}
	if !f.matchExtension(path) {
		return false
	}
	if !f.matchPatterns(path) {
		return false
	}
	return true
}

// matchSize checks the size bounds.
func (f *Filter) matchSize(size int64) bool {
	if size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return false
	}
	return true
}

// matchExtension checks if the file has an allowed extension.
func (f *Filter) matchExtension(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, e := range f.Extensions {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// matchPatterns checks if the path passes include/exclude patterns.
func (f *Filter) matchPatterns(path string) bool {
	for _, g := range f.exclude {
		if g.Match(path) {
			return false
		}
	}

	if len(f.include) > 0 {
		for _, g := range f.include {
			if g.Match(path) {
				return true
			}
		}
		return false
	}

	return true
}

// ExcludesDir returns true if the directory path matches an exclude
// pattern. The walker uses this to prune whole subtrees.
func (f *Filter) ExcludesDir(path string) bool {
	for _, g := range f.exclude {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// TypeGroups maps file type group names to their associated file extensions.
// Each group contains common extensions for that category.
var TypeGroups = map[string][]string{
	"video": {
		".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpeg", ".mpg",
	},
	"audio": {
		".mp3", ".flac", ".wav", ".aac", ".ogg", ".wma", ".m4a", ".opus", ".aiff", ".alac",
	},
	"image": {
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".svg", ".ico", ".heic", ".heif", ".raw",
	},
	"archive": {
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar", ".tgz", ".tbz2", ".tar.gz", ".tar.bz2", ".tar.xz",
	},
	"document": {
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp", ".rtf", ".txt", ".epub",
	},
}
