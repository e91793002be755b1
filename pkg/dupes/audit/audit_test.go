package audit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/dupes/pkg/dupes/audit"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "history", "audit.jsonl")
}

func record(batchID, path string, when time.Time) audit.Record {
	return audit.Record{
		Time:        when,
		BatchID:     batchID,
		Mode:        "recycle",
		Path:        path,
		Size:        1024,
		ModTimeNS:   when.UnixNano(),
		Fingerprint: types.Fingerprint{0xab, 0xcd},
		Outcome:     audit.OutcomeOK,
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := journalPath(t)

	w, err := audit.Open(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.Append(record("b1", "/data/a", time.Now())))

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, path, w.Path())
}

func TestAppendAndRead(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)

	started := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(record("batch-1", "/data/a", started)))
	require.NoError(t, w.Append(record("batch-1", "/data/b", started.Add(time.Second))))
	require.NoError(t, w.Close())

	batches, err := audit.Read(path)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	assert.Equal(t, "batch-1", b.ID)
	assert.Equal(t, "recycle", b.Mode)
	assert.True(t, b.Started.Equal(started))
	require.Len(t, b.Records, 2)
	assert.Equal(t, "/data/a", b.Records[0].Path)
	assert.Equal(t, "/data/b", b.Records[1].Path)
	assert.Equal(t, audit.OutcomeOK, b.Records[0].Outcome)
	assert.Equal(t, "abcd", b.Records[0].Fingerprint.String())
	assert.Equal(t, int64(1024), b.Records[0].Size)
}

func TestReadMissingJournal(t *testing.T) {
	batches, err := audit.Read(journalPath(t))
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestReadNewestFirst(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	older := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	require.NoError(t, w.Append(record("batch-old", "/data/a", older)))
	require.NoError(t, w.Append(record("batch-new", "/data/b", newer)))

	batches, err := audit.Read(path)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "batch-new", batches[0].ID)
	assert.Equal(t, "batch-old", batches[1].ID)
}

func TestReadSurvivesReopen(t *testing.T) {
	path := journalPath(t)

	w, err := audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record("b1", "/data/a", time.Now().Add(-time.Hour))))
	require.NoError(t, w.Close())

	w, err = audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record("b2", "/data/b", time.Now())))
	require.NoError(t, w.Close())

	batches, err := audit.Read(path)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestList(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, w.Append(record("batch-"+id, "/data/"+id, base.Add(time.Duration(i)*time.Hour))))
	}

	t.Run("limit caps the result", func(t *testing.T) {
		batches, err := audit.List(path, 2)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "batch-e", batches[0].ID)
		assert.Equal(t, "batch-d", batches[1].ID)
	})

	t.Run("zero limit returns everything", func(t *testing.T) {
		batches, err := audit.List(path, 0)
		require.NoError(t, err)
		assert.Len(t, batches, 5)
	})
}

func TestGet(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	when := time.Now()
	require.NoError(t, w.Append(record("batch-1", "/data/a", when)))
	require.NoError(t, w.Append(record("batch-2", "/data/b", when.Add(time.Minute))))

	t.Run("finds an existing batch", func(t *testing.T) {
		b, err := audit.Get(path, "batch-2")
		require.NoError(t, err)
		assert.Equal(t, "batch-2", b.ID)
		require.Len(t, b.Records, 1)
		assert.Equal(t, "/data/b", b.Records[0].Path)
	})

	t.Run("unknown id is an error", func(t *testing.T) {
		_, err := audit.Get(path, "no-such-batch")
		require.Error(t, err)
		assert.ErrorIs(t, err, audit.ErrBatchNotFound)
	})
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record("b1", "/data/a", time.Now())))
	require.NoError(t, w.Close())

	// Simulate a torn write at the end of the journal.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2025-07-01T10:`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record("b2", "/data/b", time.Now())))
	require.NoError(t, w.Close())

	batches, err := audit.Read(path)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestCleanup(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	require.NoError(t, w.Append(record("batch-old", "/data/a", old)))
	require.NoError(t, w.Append(record("batch-old", "/data/b", old.Add(time.Second))))
	require.NoError(t, w.Append(record("batch-new", "/data/c", recent)))
	require.NoError(t, w.Close())

	dropped, err := audit.Cleanup(path, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	batches, err := audit.Read(path)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "batch-new", batches[0].ID)
}

func TestCleanupNothingToDrop(t *testing.T) {
	path := journalPath(t)
	w, err := audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record("b1", "/data/a", time.Now())))
	require.NoError(t, w.Close())

	dropped, err := audit.Cleanup(path, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)

	batches, err := audit.Read(path)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestCleanupMissingJournal(t *testing.T) {
	dropped, err := audit.Cleanup(journalPath(t), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
}

func TestCloseIdempotent(t *testing.T) {
	w, err := audit.Open(journalPath(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
