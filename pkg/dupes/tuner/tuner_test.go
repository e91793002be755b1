package tuner

import (
	"runtime"
	"testing"

	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

func TestDetect(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d (runtime.NumCPU())", resources.CPUCores, runtime.NumCPU())
	}

	minRAM := int64(512 * types.MiB)
	if resources.TotalRAM < minRAM {
		t.Errorf("TotalRAM = %d bytes, want >= %d bytes (512MiB)", resources.TotalRAM, minRAM)
	}

	if resources.AvailableRAM <= 0 {
		t.Errorf("AvailableRAM = %d, want > 0", resources.AvailableRAM)
	}
	if resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM (%d) > TotalRAM (%d)", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestCalculateHashWorkers(t *testing.T) {
	tests := []struct {
		name      string
		resources SystemResources
		want      int
	}{
		{
			name:      "single core gets the floor",
			resources: SystemResources{CPUCores: 1, TotalRAM: 8 * types.GiB},
			want:      2,
		},
		{
			name:      "four cores pass through",
			resources: SystemResources{CPUCores: 4, TotalRAM: 8 * types.GiB},
			want:      4,
		},
		{
			name:      "eight cores hit the cap exactly",
			resources: SystemResources{CPUCores: 8, TotalRAM: 16 * types.GiB},
			want:      8,
		},
		{
			name:      "many cores capped",
			resources: SystemResources{CPUCores: 32, TotalRAM: 64 * types.GiB},
			want:      8,
		},
		{
			name:      "low RAM halves the pool",
			resources: SystemResources{CPUCores: 8, TotalRAM: 1 * types.GiB},
			want:      4,
		},
		{
			name:      "low RAM never halves below the floor",
			resources: SystemResources{CPUCores: 2, TotalRAM: 1 * types.GiB},
			want:      2,
		},
		{
			name:      "unknown RAM skips the low-memory rule",
			resources: SystemResources{CPUCores: 8, TotalRAM: 0},
			want:      8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.resources)
			if got.HashWorkers != tt.want {
				t.Errorf("HashWorkers = %d, want %d", got.HashWorkers, tt.want)
			}
		})
	}
}

func TestCalculateCacheEntries(t *testing.T) {
	tests := []struct {
		name         string
		availableRAM int64
		want         int
	}{
		{
			name:         "tiny RAM hits the floor",
			availableRAM: 16 * types.MiB,
			want:         minCacheEntries,
		},
		{
			name:         "huge RAM hits the cap",
			availableRAM: 256 * types.GiB,
			want:         maxCacheEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(SystemResources{CPUCores: 4, TotalRAM: 8 * types.GiB, AvailableRAM: tt.availableRAM})
			if got.CacheEntries != tt.want {
				t.Errorf("CacheEntries = %d, want %d", got.CacheEntries, tt.want)
			}
		})
	}

	// Mid-range RAM lands strictly between the bounds.
	got := Calculate(SystemResources{CPUCores: 4, TotalRAM: 8 * types.GiB, AvailableRAM: 4 * types.GiB})
	if got.CacheEntries <= minCacheEntries || got.CacheEntries >= maxCacheEntries {
		t.Errorf("CacheEntries = %d, want strictly inside (%d, %d)", got.CacheEntries, minCacheEntries, maxCacheEntries)
	}
}

func TestCalculateWithOverrides(t *testing.T) {
	resources := SystemResources{
		CPUCores:     8,
		TotalRAM:     16 * types.GiB,
		AvailableRAM: 8 * types.GiB,
	}

	tests := []struct {
		name           string
		workerOverride int
		want           int
	}{
		{"no override (0)", 0, 8},
		{"no override (negative)", -3, 8},
		{"override below default", 3, 3},
		{"override capped", 100, maxHashWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateWithOverrides(resources, tt.workerOverride)
			if got.HashWorkers != tt.want {
				t.Errorf("HashWorkers = %d, want %d", got.HashWorkers, tt.want)
			}
		})
	}
}

func TestCalculateIntegration(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}

	tuning := Calculate(resources)

	if tuning.HashWorkers < minHashWorkers || tuning.HashWorkers > maxHashWorkers {
		t.Errorf("HashWorkers = %d, want in [%d, %d]", tuning.HashWorkers, minHashWorkers, maxHashWorkers)
	}
	if tuning.CacheEntries < minCacheEntries || tuning.CacheEntries > maxCacheEntries {
		t.Errorf("CacheEntries = %d, want in [%d, %d]", tuning.CacheEntries, minCacheEntries, maxCacheEntries)
	}
}
