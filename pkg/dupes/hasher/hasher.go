package hasher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// chunkSize is the read buffer size for full fingerprints and byte
// comparison. Large enough to keep spinning disks streaming, small
// enough that a pool of them per worker stays cheap.
const chunkSize = 256 * 1024

// Hasher computes fingerprints. It is safe for concurrent use; read
// buffers come from an internal pool so parallel workers don't allocate
// per file.
type Hasher struct {
	bufferPool *sync.Pool

	// onBytes, when set, is called with the number of content bytes read
	// during fingerprinting. The scanner uses it for progress accounting.
	onBytes func(n int64)
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithBytesCallback registers a callback invoked with byte counts as
// file content is read. Must be safe for concurrent calls.
func WithBytesCallback(fn func(n int64)) Option {
	return func(h *Hasher) {
		h.onBytes = fn
	}
}

// New creates a Hasher.
func New(opts ...Option) *Hasher {
	h := &Hasher{
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, chunkSize)
				return &buf
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// countBytes reports read progress when a callback is registered.
func (h *Hasher) countBytes(n int) {
	if h.onBytes != nil && n > 0 {
		h.onBytes(int64(n))
	}
}

// Quick computes the quick fingerprint of a file: the xxhash64 of its
// first and last QuickProbeSize bytes. Files at most twice the probe
// size are hashed whole. The size parameter is the file size observed
// at enumeration time.
//
// A quick fingerprint is a filter, not a verdict: equal sums mean
// "possibly identical", differing sums mean "definitely different"
// for files of equal size.
func (h *Hasher) Quick(path string, size int64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d := xxhash.New()

	if size <= 2*types.QuickProbeSize {
		bufPtr := h.bufferPool.Get().(*[]byte)
		defer h.bufferPool.Put(bufPtr)

		n, err := io.CopyBuffer(d, f, *bufPtr)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		h.countBytes(int(n))
		return d.Sum64(), nil
	}

	probe := make([]byte, types.QuickProbeSize)

	// Head probe.
	if _, err := io.ReadFull(f, probe); err != nil {
		return 0, fmt.Errorf("reading head of %s: %w", path, err)
	}
	_, _ = d.Write(probe)

	// Tail probe at the offset implied by the enumerated size. A file
	// that shrank since enumeration surfaces here as a read error.
	if _, err := f.ReadAt(probe, size-types.QuickProbeSize); err != nil {
		return 0, fmt.Errorf("reading tail of %s: %w", path, err)
	}
	_, _ = d.Write(probe)

	h.countBytes(int(2 * types.QuickProbeSize))
	return d.Sum64(), nil
}

// Full computes the full-content fingerprint of a file with the given
// algorithm. It streams in fixed-size chunks and polls ctx between
// chunks, so cancellation takes effect promptly even on huge files.
func (h *Hasher) Full(ctx context.Context, path string, alg types.Algorithm) (types.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	digest, err := NewHash(alg)
	if err != nil {
		return nil, err
	}

	bufPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := f.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
			h.countBytes(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return types.Fingerprint(digest.Sum(nil)), nil
}

// Equal reports whether two files have byte-identical content.
// It compares in fixed-size chunks and polls ctx between chunks.
func (h *Hasher) Equal(ctx context.Context, a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", a, err)
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", b, err)
	}
	defer fb.Close()

	// Size mismatch settles it without reading content.
	ia, err := fa.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	ib, err := fb.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	bufAPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufAPtr)
	bufBPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufBPtr)
	bufA := *bufAPtr
	bufB := *bufBPtr

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)

		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		h.countBytes(na + nb)

		endA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		endB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if endA || endB {
			return endA == endB, nil
		}
		if errA != nil {
			return false, fmt.Errorf("reading %s: %w", a, errA)
		}
		if errB != nil {
			return false, fmt.Errorf("reading %s: %w", b, errB)
		}
	}
}
