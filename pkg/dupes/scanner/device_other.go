//go:build !unix

package scanner

import "os"

// deviceOf returns the ID of the device a file lives on.
// On platforms without device IDs every path reports 0, so the walk
// treats everything as one filesystem.
func deviceOf(info os.FileInfo) uint64 {
	return 0
}
