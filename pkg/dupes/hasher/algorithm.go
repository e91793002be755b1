// Package hasher computes file fingerprints for duplicate detection.
// It provides cheap quick fingerprints over file head and tail probes,
// full streaming fingerprints over selectable algorithms, and a direct
// byte comparison for callers that want certainty beyond hash equality.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/zeebo/blake3"
)

// NewHash returns a fresh hash.Hash for the given algorithm.
func NewHash(alg types.Algorithm) (hash.Hash, error) {
	switch alg {
	case types.AlgoBLAKE3:
		return blake3.New(), nil
	case types.AlgoSHA256:
		return sha256.New(), nil
	case types.AlgoSHA1:
		return sha1.New(), nil
	case types.AlgoMD5:
		return md5.New(), nil
	case types.AlgoXXH64:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAlgorithm, alg)
	}
}

// DigestSize returns the fingerprint length in bytes for the algorithm.
func DigestSize(alg types.Algorithm) (int, error) {
	h, err := NewHash(alg)
	if err != nil {
		return 0, err
	}
	return h.Size(), nil
}
