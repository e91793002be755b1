package cache

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
)

// CacheVersion is bumped when the entry encoding changes. Keys carry the
// version so entries written by an older layout surface as misses instead
// of decoding garbage.
const CacheVersion = 1

// keyPrefix versions every key: "v1\x00<absolute path>".
var keyPrefix = []byte("v1\x00")

// Entry is the cached hash state for one file. Quick and full fingerprints
// are populated independently: a file that never reached the full pass has
// only the quick sum, and either can be refreshed without losing the other.
type Entry struct {
	Size         int64  // file size when the hash was computed
	MtimeNS      int64  // modification time when the hash was computed, UnixNano
	Quick        uint64 // head+tail sum, meaningful only when HasQuick
	HasQuick     bool
	Full         []byte // full-content digest, nil when absent
	Algo         string // algorithm that produced Full
	LastAccessNS int64  // last read or write, UnixNano; eviction orders by this
	Hits         int64
}

// Valid reports whether the entry still describes the file on disk: same
// size and same modification time. Anything else means the file changed
// after the hash was computed.
func (e *Entry) Valid(size, mtimeNS int64) bool {
	return e.Size == size && e.MtimeNS == mtimeNS
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// normalizePath cleans and absolutizes a path so the same file always maps
// to the same key regardless of how the caller spelled it.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// MakeKey builds the store key for a file path.
func MakeKey(path string) []byte {
	return append(append([]byte(nil), keyPrefix...), normalizePath(path)...)
}

// ParseKey extracts the file path from a store key.
func ParseKey(key []byte) string {
	return string(bytes.TrimPrefix(key, keyPrefix))
}
