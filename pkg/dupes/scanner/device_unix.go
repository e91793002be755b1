//go:build unix

package scanner

import (
	"os"
	"syscall"
)

// deviceOf returns the ID of the device a file lives on.
// Returns 0 if the platform stat is unavailable.
func deviceOf(info os.FileInfo) uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(stat.Dev)
}
