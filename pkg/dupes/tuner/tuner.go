// Package tuner detects system resources and derives worker defaults for
// hashing. Duplicate detection is I/O bound: a few workers keep the disk
// saturated, and piling on more only adds seek contention.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available (free) RAM in bytes.
	// This may be an estimate based on system heuristics.
	AvailableRAM int64
}
