// Package scanner finds duplicate files beneath a set of roots.
//
// Detection runs in three passes. The first walks the roots with
// fastwalk and buckets files by size. The second computes a quick
// fingerprint for every member of a multi-file size bucket. The third
// computes a full-content fingerprint for every member of a multi-file
// quick bucket. Only the full fingerprint declares files duplicates;
// the earlier passes exist to shrink the work, and a collision there
// can only cost extra hashing, never a wrong group.
package scanner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/dupes/pkg/dupes/cache"
	"github.com/jamesainslie/dupes/pkg/dupes/filter"
	"github.com/jamesainslie/dupes/pkg/dupes/groups"
	"github.com/jamesainslie/dupes/pkg/dupes/hasher"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// progressInterval is the minimum gap between progress callbacks in
// milliseconds.
const progressInterval = 10

// Scanner runs duplicate detection. Configure it with New and the
// functional options; a Scanner is good for one Scan call.
type Scanner struct {
	roots      []string
	filter     *filter.Filter
	follow     bool
	oneFS      bool
	alg        types.Algorithm
	workers    int
	verify     bool
	cache      *cache.Cache
	onProgress func(types.ScanProgress)

	hasher *hasher.Hasher

	// Atomic progress state, read by sendProgress from worker
	// goroutines.
	phase       atomic.Int32
	phaseDone   atomic.Int64
	phaseTotal  atomic.Int64
	currentPath atomic.Value
	filesSeen   atomic.Int64
	bytesHashed atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// lastProgress tracks when we last reported progress to avoid
	// excessive callbacks.
	lastProgress atomic.Int64

	// errors collects per-file failures without stopping the scan.
	errors   []types.ScanError
	errorsMu sync.Mutex
}

// Result is the outcome of a completed scan.
type Result struct {
	// Groups holds the confirmed duplicate groups, sorted by wasted
	// space descending.
	Groups []groups.Group `json:"groups"`

	// Errors lists files that could not be read or hashed. They are
	// absent from Groups.
	Errors []types.ScanError `json:"errors,omitempty"`

	// Stats summarizes the work done.
	Stats Stats `json:"stats"`
}

// Stats describes how much work a scan did.
type Stats struct {
	// FilesSeen is the number of regular files that passed the filter.
	FilesSeen int64 `json:"files_seen"`

	// SizeGroups is the number of sizes shared by two or more files.
	SizeGroups int `json:"size_groups"`

	// Candidates is the number of files that entered the hashing passes.
	Candidates int `json:"candidates"`

	// BytesHashed is the total content bytes read across all passes.
	BytesHashed int64 `json:"bytes_hashed"`

	// CacheHits counts fingerprints served from the cache.
	CacheHits int64 `json:"cache_hits"`

	// CacheMisses counts fingerprints that had to be computed.
	CacheMisses int64 `json:"cache_misses"`

	// Elapsed is the wall-clock duration of the scan.
	Elapsed time.Duration `json:"elapsed"`
}

// New creates a Scanner for the given roots.
func New(roots []string, opts ...Option) (*Scanner, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	s := &Scanner{
		roots:   slices.Clone(roots),
		alg:     types.AlgoBLAKE3,
		workers: DefaultWorkers,
	}
	s.currentPath.Store("")

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.filter == nil {
		f, err := filter.New()
		if err != nil {
			return nil, err
		}
		s.filter = f
	}

	s.hasher = hasher.New(hasher.WithBytesCallback(func(n int64) {
		s.bytesHashed.Add(n)
	}))

	return s, nil
}

// Scan runs all passes and returns the confirmed duplicate groups.
// It blocks until complete. Cancellation returns the context error and
// no partial results.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	roots, err := s.resolveRoots()
	if err != nil {
		return nil, err
	}

	s.setPhase(types.PhaseEnumerate, 0)
	s.reportProgressForce()

	bySize, err := s.enumerate(ctx, roots)
	if err != nil {
		return nil, err
	}

	// Only sizes shared by at least two files advance to hashing.
	var worklist []types.FileRecord
	sizeGroups := 0
	for _, recs := range bySize {
		if len(recs) < 2 {
			continue
		}
		sizeGroups++
		worklist = append(worklist, recs...)
	}

	// Walk order is nondeterministic; path order makes dispatch and
	// progress repeatable.
	slices.SortFunc(worklist, func(a, b types.FileRecord) int {
		return cmp.Compare(a.Path, b.Path)
	})

	buckets, err := s.quickPass(ctx, worklist)
	if err != nil {
		return nil, err
	}

	gs, err := s.fullPass(ctx, buckets)
	if err != nil {
		return nil, err
	}

	if s.verify {
		gs, err = s.verifyGroups(ctx, gs)
		if err != nil {
			return nil, err
		}
	}

	s.setPhase(types.PhaseDone, 0)
	s.currentPath.Store("")
	s.reportProgressForce()

	groups.Sort(gs)

	return &Result{
		Groups: gs,
		Errors: s.errors,
		Stats: Stats{
			FilesSeen:   s.filesSeen.Load(),
			SizeGroups:  sizeGroups,
			Candidates:  len(worklist),
			BytesHashed: s.bytesHashed.Load(),
			CacheHits:   s.cacheHits.Load(),
			CacheMisses: s.cacheMisses.Load(),
			Elapsed:     time.Since(startTime),
		},
	}, nil
}

// resolveRoots resolves every root to an absolute path and verifies it
// is a directory.
func (s *Scanner) resolveRoots() ([]string, error) {
	resolved := make([]string, 0, len(s.roots))
	for _, root := range s.roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: %w", abs, os.ErrInvalid)
		}

		resolved = append(resolved, abs)
	}
	return resolved, nil
}

// enumerate walks every root and buckets regular files by size.
// Overlapping roots are deduplicated by path.
func (s *Scanner) enumerate(ctx context.Context, roots []string) (map[int64][]types.FileRecord, error) {
	conf := fastwalk.Config{
		Follow: s.follow,
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	bySize := make(map[int64][]types.FileRecord)
	seen := make(map[string]bool)
	var mu sync.Mutex

	for _, root := range roots {
		var rootDev uint64
		if s.oneFS {
			info, err := os.Stat(root)
			if err != nil {
				return nil, err
			}
			rootDev = deviceOf(info)
		}

		err := fastwalk.Walk(&conf, root, s.walkCallback(done, rootDev, seen, bySize, &mu))
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, fastwalk.ErrSkipFiles) {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bySize, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(done <-chan struct{}, rootDev uint64, seen map[string]bool, bySize map[int64][]types.FileRecord, mu *sync.Mutex) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation.
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		// Handle errors gracefully - log and continue.
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if d.IsDir() {
			if s.filter.ExcludesDir(path) {
				return fastwalk.SkipDir
			}
			if s.oneFS {
				info, statErr := os.Stat(path)
				if statErr != nil {
					s.addError(path, statErr)
					return fastwalk.SkipDir
				}
				if deviceOf(info) != rootDev {
					return fastwalk.SkipDir
				}
			}
			s.currentPath.Store(path)
			s.reportProgress()
			return nil
		}

		// Regular files only. With symlink following on, a link to a
		// regular file counts as the file it points at.
		var info fs.FileInfo
		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
		case s.follow && d.Type()&fs.ModeSymlink != 0:
			info, err = os.Stat(path)
			if err == nil && !info.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if !s.filter.Match(path, info.Size()) {
			return nil
		}

		mu.Lock()
		if seen[path] {
			mu.Unlock()
			return nil
		}
		seen[path] = true
		bySize[info.Size()] = append(bySize[info.Size()], types.FileRecord{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()

		s.filesSeen.Add(1)
		s.phaseDone.Add(1)
		s.reportProgress()
		return nil
	}
}

// quickPass computes quick fingerprints for the worklist and buckets
// files by (size, sum). Buckets with fewer than two members are
// dropped. Zero-size files bucket together without any I/O.
func (s *Scanner) quickPass(ctx context.Context, worklist []types.FileRecord) (map[types.QuickKey][]types.FileRecord, error) {
	s.setPhase(types.PhaseQuick, int64(len(worklist)))
	s.reportProgressForce()

	keys := make([]types.QuickKey, len(worklist))
	ok := make([]bool, len(worklist))

	runner := hasher.NewRunner(s.workers)
	runErr := runner.Process(ctx, len(worklist), func(i int) {
		defer func() {
			s.phaseDone.Add(1)
			s.reportProgress()
		}()

		rec := worklist[i]
		s.currentPath.Store(rec.Path)

		if rec.Size == 0 {
			keys[i] = types.QuickKey{}
			ok[i] = true
			return
		}

		mtimeNS := rec.ModTime.UnixNano()
		if s.cache != nil {
			if sum, hit := s.cache.GetQuick(rec.Path, rec.Size, mtimeNS); hit {
				s.cacheHits.Add(1)
				keys[i] = types.QuickKey{Size: rec.Size, Sum: sum}
				ok[i] = true
				return
			}
			s.cacheMisses.Add(1)
		}

		sum, err := s.hasher.Quick(rec.Path, rec.Size)
		if err != nil {
			s.addError(rec.Path, err)
			return
		}

		if s.cache != nil {
			if err := s.cache.PutQuick(rec.Path, rec.Size, mtimeNS, sum); err != nil {
				s.addError(rec.Path, err)
			}
		}

		keys[i] = types.QuickKey{Size: rec.Size, Sum: sum}
		ok[i] = true
	})
	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buckets := make(map[types.QuickKey][]types.FileRecord)
	for i, rec := range worklist {
		if !ok[i] {
			continue
		}
		buckets[keys[i]] = append(buckets[keys[i]], rec)
	}
	for key, recs := range buckets {
		if len(recs) < 2 {
			delete(buckets, key)
		}
	}
	return buckets, nil
}

// fullKey buckets files after the full-fingerprint pass.
type fullKey struct {
	size   int64
	digest string
}

// fullPass computes full fingerprints for every bucket member and
// builds the confirmed groups. Progress is weighted by bytes, so one
// huge file does not look like one small unit of work.
func (s *Scanner) fullPass(ctx context.Context, buckets map[types.QuickKey][]types.FileRecord) ([]groups.Group, error) {
	var worklist []types.FileRecord
	var totalBytes int64
	var zeroRecs []types.FileRecord
	for key, recs := range buckets {
		if key.Size == 0 {
			zeroRecs = recs
			continue
		}
		worklist = append(worklist, recs...)
		totalBytes += key.Size * int64(len(recs))
	}
	slices.SortFunc(worklist, func(a, b types.FileRecord) int {
		return cmp.Compare(a.Path, b.Path)
	})

	s.setPhase(types.PhaseFull, totalBytes)
	s.reportProgressForce()

	fps := make([]types.Fingerprint, len(worklist))

	runner := hasher.NewRunner(s.workers)
	runErr := runner.Process(ctx, len(worklist), func(i int) {
		rec := worklist[i]
		defer func() {
			s.phaseDone.Add(rec.Size)
			s.reportProgress()
		}()

		s.currentPath.Store(rec.Path)

		mtimeNS := rec.ModTime.UnixNano()
		if s.cache != nil {
			if fp, hit := s.cache.GetFull(rec.Path, rec.Size, mtimeNS, s.alg); hit {
				s.cacheHits.Add(1)
				fps[i] = fp
				return
			}
			s.cacheMisses.Add(1)
		}

		fp, err := s.hasher.Full(ctx, rec.Path, s.alg)
		if err != nil {
			if ctx.Err() == nil {
				s.addError(rec.Path, err)
			}
			return
		}

		if s.cache != nil {
			if err := s.cache.PutFull(rec.Path, rec.Size, mtimeNS, s.alg, fp); err != nil {
				s.addError(rec.Path, err)
			}
		}

		fps[i] = fp
	})
	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byDigest := make(map[fullKey][]int)
	for i := range worklist {
		if fps[i] == nil {
			continue
		}
		key := fullKey{size: worklist[i].Size, digest: string(fps[i])}
		byDigest[key] = append(byDigest[key], i)
	}

	var gs []groups.Group
	for key, idxs := range byDigest {
		if len(idxs) < 2 {
			continue
		}
		members := make([]types.FileRecord, len(idxs))
		for j, i := range idxs {
			members[j] = worklist[i]
		}
		gs = append(gs, groups.Group{
			Fingerprint: types.Fingerprint(key.digest),
			Algorithm:   s.alg,
			Size:        key.size,
			Files:       members,
		})
	}

	// Zero-size files share the algorithm's empty digest. No content
	// is read for them in any pass.
	if len(zeroRecs) >= 2 {
		digest, err := hasher.NewHash(s.alg)
		if err != nil {
			return nil, err
		}
		gs = append(gs, groups.Group{
			Fingerprint: types.Fingerprint(digest.Sum(nil)),
			Algorithm:   s.alg,
			Size:        0,
			Files:       zeroRecs,
		})
	}

	return gs, nil
}

// verifyGroups re-checks every group by byte comparison. Matching
// fingerprints on distinct content are vanishingly rare, but cheap to
// rule out when asked. Verification only ever splits groups.
func (s *Scanner) verifyGroups(ctx context.Context, gs []groups.Group) ([]groups.Group, error) {
	verified := make([]groups.Group, 0, len(gs))
	for i := range gs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		split, err := s.splitByContent(ctx, gs[i])
		if err != nil {
			return nil, err
		}
		verified = append(verified, split...)
	}
	return verified, nil
}

// splitByContent partitions a group into sets of byte-identical files.
// Each round compares the first remaining member against the rest;
// mismatches carry over to the next round. A member that cannot be
// read is recorded as an error and falls out of the group.
func (s *Scanner) splitByContent(ctx context.Context, g groups.Group) ([]groups.Group, error) {
	if g.Size == 0 || len(g.Files) < 2 {
		return []groups.Group{g}, nil
	}

	var out []groups.Group
	rest := g.Files
	for len(rest) > 0 {
		ref := rest[0]
		s.currentPath.Store(ref.Path)
		s.reportProgress()

		same := []types.FileRecord{ref}
		var diff []types.FileRecord
		for _, other := range rest[1:] {
			eq, err := s.hasher.Equal(ctx, ref.Path, other.Path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				s.addError(other.Path, err)
				diff = append(diff, other)
				continue
			}
			if eq {
				same = append(same, other)
			} else {
				diff = append(diff, other)
			}
		}

		if len(same) > 1 {
			ng := g
			ng.Files = same
			out = append(out, ng)
		}
		rest = diff
	}
	return out, nil
}

// setPhase moves progress accounting into a new pass. Scan calls it
// between joined passes, never while workers are running.
func (s *Scanner) setPhase(p types.ScanPhase, total int64) {
	s.phase.Store(int32(p))
	s.phaseTotal.Store(total)
	s.phaseDone.Store(0)
}

// addError adds an error to the error list thread-safely.
func (s *Scanner) addError(path string, err error) {
	s.errorsMu.Lock()
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	s.errorsMu.Unlock()
}

// reportProgress calls the progress callback if configured.
// Throttles calls to avoid excessive overhead.
func (s *Scanner) reportProgress() {
	if s.onProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < progressInterval {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	s.sendProgress()
}

// reportProgressForce calls the progress callback immediately,
// bypassing the throttle. Use for phase changes.
func (s *Scanner) reportProgressForce() {
	if s.onProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress()
}

// sendProgress sends the current progress to the callback.
func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.onProgress(types.ScanProgress{
		Phase:       types.ScanPhase(s.phase.Load()),
		PhaseDone:   s.phaseDone.Load(),
		PhaseTotal:  s.phaseTotal.Load(),
		CurrentPath: currentPath,
		FilesSeen:   s.filesSeen.Load(),
		BytesHashed: s.bytesHashed.Load(),
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
	})
}
