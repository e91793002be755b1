// Package cache persists file fingerprints across runs so unchanged files
// are never hashed twice. Entries are keyed by absolute path and validated
// against size and modification time on every read.
package cache

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dupes/pkg/dupes/logging"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// DefaultMaxEntries bounds the cache before eviction kicks in.
const DefaultMaxEntries = 1_000_000

// evictDivisor sets the eviction batch: one evictDivisor-th of the budget
// is dropped at a time, oldest access first.
const evictDivisor = 10

// Stats describes cache effectiveness for one session plus the current
// store size.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Puts      uint64 `json:"puts"`
}

// Cache is the high-level hash cache. A single mutex guards the store and
// the counters; hashing dominates wall time, so lookups never contend long
// enough to matter.
type Cache struct {
	mu         sync.Mutex
	store      *Store
	maxEntries int
	entries    int
	hits       uint64
	misses     uint64
	evictions  uint64
	puts       uint64
	log        *logging.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries overrides the entry budget. Zero or negative disables
// eviction entirely.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// Open opens or creates a cache at the given path.
func Open(path string, opts ...Option) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		store:      store,
		maxEntries: DefaultMaxEntries,
		log:        logging.Get("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}

	n, err := store.Count()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c.entries = n

	return c, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Close()
}

// GetQuick returns the cached quick sum for path if the entry is present,
// matches the file's current size and mtime, and holds a quick sum.
func (c *Cache) GetQuick(path string, size, mtimeNS int64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(path, size, mtimeNS)
	if !ok || !entry.HasQuick {
		c.misses++
		return 0, false
	}

	c.hits++
	c.touch(MakeKey(path), entry)
	return entry.Quick, true
}

// GetFull returns the cached full fingerprint for path if the entry is
// present, matches size and mtime, and was computed with the same
// algorithm.
func (c *Cache) GetFull(path string, size, mtimeNS int64, algo types.Algorithm) (types.Fingerprint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(path, size, mtimeNS)
	if !ok || len(entry.Full) == 0 || entry.Algo != string(algo) {
		c.misses++
		return nil, false
	}

	c.hits++
	c.touch(MakeKey(path), entry)
	return types.Fingerprint(entry.Full), true
}

// PutQuick records the quick sum for path, preserving any full fingerprint
// the entry already holds for the same size and mtime.
func (c *Cache) PutQuick(path string, size, mtimeNS int64, sum uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := MakeKey(path)
	entry, existed := c.mergeBase(key, size, mtimeNS)
	entry.Quick = sum
	entry.HasQuick = true

	return c.writeLocked(key, entry, existed)
}

// PutFull records the full fingerprint for path, preserving any quick sum
// the entry already holds for the same size and mtime.
func (c *Cache) PutFull(path string, size, mtimeNS int64, algo types.Algorithm, fp types.Fingerprint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := MakeKey(path)
	entry, existed := c.mergeBase(key, size, mtimeNS)
	entry.Full = fp
	entry.Algo = string(algo)

	return c.writeLocked(key, entry, existed)
}

// Remove drops the entry for path, if any.
func (c *Cache) Remove(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := MakeKey(path)
	if _, err := c.store.Get(key); errors.Is(err, ErrNotFound) {
		return nil
	}

	if err := c.store.Delete(key); err != nil {
		return err
	}
	c.entries--
	return nil
}

// RemoveTree drops the entry for path and every entry below it. Used when
// a watched directory disappears.
func (c *Cache) RemoveTree(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.store.DeletePathPrefix(path)
	if err != nil {
		return err
	}
	c.entries -= n
	return nil
}

// Clear removes all cached entries. Session counters are untouched.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DropAll(); err != nil {
		return err
	}
	c.entries = 0
	return nil
}

// Len returns the number of entries currently stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   c.entries,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Puts:      c.puts,
	}
}

// lookup fetches and validates the entry for path. Corrupt values are
// deleted on sight; stale entries are left in place for the next Put to
// overwrite.
func (c *Cache) lookup(path string, size, mtimeNS int64) (*Entry, bool) {
	key := MakeKey(path)
	entry, err := c.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if errors.Is(err, ErrCorrupt) {
		c.log.Warn("deleting corrupt cache entry", "path", path)
		if delErr := c.store.Delete(key); delErr == nil {
			c.entries--
		}
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "path", path, "error", err)
		return nil, false
	}
	if !entry.Valid(size, mtimeNS) {
		return nil, false
	}
	return entry, true
}

// touch refreshes the access time behind a hit so eviction sees it.
func (c *Cache) touch(key []byte, entry *Entry) {
	entry.LastAccessNS = time.Now().UnixNano()
	entry.Hits++
	if err := c.store.Put(key, entry); err != nil {
		c.log.Debug("cache touch failed", "error", err)
	}
}

// mergeBase returns the entry a Put should write for path. An existing
// entry that still matches size and mtime keeps its other fingerprint;
// a stale or corrupt one starts fresh but keeps its slot in the count.
func (c *Cache) mergeBase(key []byte, size, mtimeNS int64) (*Entry, bool) {
	now := time.Now().UnixNano()

	existing, err := c.store.Get(key)
	if err == nil && existing.Valid(size, mtimeNS) {
		existing.LastAccessNS = now
		return existing, true
	}

	entry := &Entry{Size: size, MtimeNS: mtimeNS, LastAccessNS: now}
	return entry, err == nil || errors.Is(err, ErrCorrupt)
}

// writeLocked persists entry and maintains the count, evicting when a new
// key pushes the store over budget.
func (c *Cache) writeLocked(key []byte, entry *Entry, existed bool) error {
	if err := c.store.Put(key, entry); err != nil {
		return err
	}
	c.puts++
	if !existed {
		c.entries++
		c.evictLocked()
	}
	return nil
}

// evictLocked drops the oldest tenth of the budget once the entry count
// exceeds it.
func (c *Cache) evictLocked() {
	if c.maxEntries <= 0 || c.entries <= c.maxEntries {
		return
	}

	batch := c.maxEntries / evictDivisor
	if batch < 1 {
		batch = 1
	}

	type victim struct {
		key    []byte
		access int64
	}
	var victims []victim
	err := c.store.Each(func(key []byte, entry *Entry) {
		var access int64
		if entry != nil {
			access = entry.LastAccessNS
		}
		victims = append(victims, victim{key: key, access: access})
	})
	if err != nil {
		c.log.Warn("eviction scan failed", "error", err)
		return
	}

	sort.Slice(victims, func(i, j int) bool {
		return victims[i].access < victims[j].access
	})
	if batch > len(victims) {
		batch = len(victims)
	}

	keys := make([][]byte, 0, batch)
	for _, v := range victims[:batch] {
		keys = append(keys, v.key)
	}

	if err := c.store.DeleteBatch(keys); err != nil {
		c.log.Warn("eviction failed", "error", err)
		return
	}

	c.entries -= len(keys)
	c.evictions += uint64(len(keys))
	c.log.Debug("evicted cache entries", "count", len(keys), "remaining", c.entries)
}
