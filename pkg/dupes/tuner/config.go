package tuner

import "github.com/jamesainslie/dupes/pkg/dupes/types"

// Worker configuration limits.
const (
	// minHashWorkers is the floor for hash workers. Even a single-core
	// machine overlaps one read with one hash.
	minHashWorkers = 2

	// maxHashWorkers caps the pool. Past this the disk is the bottleneck
	// and extra workers just interleave seeks.
	maxHashWorkers = 8

	// lowRAMThreshold marks systems where hash buffers and badger tables
	// compete with everything else for memory.
	lowRAMThreshold = 2 * types.GiB
)

// Cache sizing constants.
const (
	// bytesPerCacheEntry estimates the in-store footprint of one entry:
	// key (path), gob-encoded value, and badger overhead.
	bytesPerCacheEntry = 512

	// cacheMemoryFraction is the fraction of available RAM the cache entry
	// budget is allowed to imply.
	cacheMemoryFraction = 0.05

	// minCacheEntries and maxCacheEntries bound the derived budget.
	minCacheEntries = 10_000
	maxCacheEntries = 10_000_000
)

// Tuning contains derived defaults for the detected system.
type Tuning struct {
	// HashWorkers is the number of concurrent hashing workers.
	HashWorkers int

	// CacheEntries is the suggested hash cache entry budget.
	CacheEntries int
}

// Calculate returns tuned defaults for the given resources.
//
// HashWorkers is NumCPU clamped to [2, 8], halved (but never below the
// floor) when total RAM is under 2 GiB. CacheEntries scales with available
// RAM between fixed bounds.
func Calculate(resources SystemResources) Tuning {
	workers := resources.CPUCores
	workers = max(workers, minHashWorkers)
	workers = min(workers, maxHashWorkers)

	if resources.TotalRAM > 0 && resources.TotalRAM < lowRAMThreshold {
		workers = max(workers/2, minHashWorkers)
	}

	return Tuning{
		HashWorkers:  workers,
		CacheEntries: calculateCacheEntries(resources.AvailableRAM),
	}
}

// CalculateWithOverrides applies a user worker override to the tuned
// defaults. Zero or negative means no override; positive values are still
// capped at the pool maximum.
func CalculateWithOverrides(resources SystemResources, workerOverride int) Tuning {
	tuning := Calculate(resources)

	if workerOverride > 0 {
		tuning.HashWorkers = min(workerOverride, maxHashWorkers)
	}

	return tuning
}

// calculateCacheEntries determines the cache entry budget from available
// memory.
func calculateCacheEntries(availableRAM int64) int {
	budget := float64(availableRAM) * cacheMemoryFraction
	entries := int(budget / bytesPerCacheEntry)

	entries = max(entries, minCacheEntries)
	entries = min(entries, maxCacheEntries)

	return entries
}
