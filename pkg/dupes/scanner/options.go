package scanner

import (
	"errors"

	"github.com/jamesainslie/dupes/pkg/dupes/cache"
	"github.com/jamesainslie/dupes/pkg/dupes/filter"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// DefaultWorkers is the hash worker count used when none is configured.
// The tuner picks a better value from the machine's resources.
const DefaultWorkers = 4

// ErrNoRoots indicates that no scan roots were given.
var ErrNoRoots = errors.New("no scan roots given")

// Option is a functional option for configuring a Scanner.
type Option func(*Scanner) error

// WithFilter sets the file filter. A nil filter leaves the default in
// place.
func WithFilter(f *filter.Filter) Option {
	return func(s *Scanner) error {
		if f != nil {
			s.filter = f
		}
		return nil
	}
}

// WithFollowSymlinks makes the walk descend into symlinked directories
// and treat links to regular files as the files they point at.
func WithFollowSymlinks(follow bool) Option {
	return func(s *Scanner) error {
		s.follow = follow
		return nil
	}
}

// WithOneFilesystem prunes directories on a different device than their
// scan root, so the walk never crosses a mount point.
func WithOneFilesystem(one bool) Option {
	return func(s *Scanner) error {
		s.oneFS = one
		return nil
	}
}

// WithAlgorithm sets the full-fingerprint hash algorithm.
func WithAlgorithm(alg types.Algorithm) Option {
	return func(s *Scanner) error {
		s.alg = alg
		return nil
	}
}

// WithWorkers sets the hash worker count. Values below one fall back
// to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(s *Scanner) error {
		if n >= 1 {
			s.workers = n
		}
		return nil
	}
}

// WithVerify enables byte-by-byte comparison of every confirmed group.
// Verification can split groups, never merge them.
func WithVerify(verify bool) Option {
	return func(s *Scanner) error {
		s.verify = verify
		return nil
	}
}

// WithCache attaches a fingerprint cache. Unchanged files hit the
// cache on repeat scans instead of being re-read.
func WithCache(c *cache.Cache) Option {
	return func(s *Scanner) error {
		s.cache = c
		return nil
	}
}

// WithProgress sets the progress callback. It must be safe to call
// from multiple goroutines.
func WithProgress(fn func(types.ScanProgress)) Option {
	return func(s *Scanner) error {
		s.onProgress = fn
		return nil
	}
}
