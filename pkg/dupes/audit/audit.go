// Package audit keeps a durable journal of every file action. Each
// action appends one JSON line and is synced to disk before the
// executor moves on, so the journal names every file touched even if
// the process dies mid-batch.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// Outcome is the result of one attempted action.
type Outcome string

// Action outcomes.
const (
	// OutcomeOK means the action completed.
	OutcomeOK Outcome = "ok"

	// OutcomeSkipped means the file was left alone, typically because
	// it changed after scanning or was already gone.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means the action was attempted and did not complete.
	OutcomeFailed Outcome = "failed"
)

// Record is one journal line: a single file acted on.
type Record struct {
	// Time is when the action finished.
	Time time.Time `json:"time"`

	// BatchID ties the record to one executor run.
	BatchID string `json:"batch_id"`

	// Mode names the action taken (recycle, move, delete, hardlink,
	// symlink).
	Mode string `json:"mode"`

	// Path is the file acted on.
	Path string `json:"path"`

	// Target is the destination for move and link modes.
	Target string `json:"target,omitempty"`

	// Size is the file size in bytes at scan time.
	Size int64 `json:"size"`

	// ModTimeNS is the scan-time modification time in Unix nanoseconds.
	ModTimeNS int64 `json:"mtime_ns"`

	// Fingerprint is the content digest of the group the file belonged
	// to.
	Fingerprint types.Fingerprint `json:"fingerprint,omitempty"`

	// Outcome reports whether the action succeeded.
	Outcome Outcome `json:"outcome"`

	// Error carries the failure message for failed and skipped
	// outcomes.
	Error string `json:"error,omitempty"`

	// DryRun marks a rehearsal record; no file was touched.
	DryRun bool `json:"dry_run,omitempty"`
}

// Batch is the set of records written by one executor run.
type Batch struct {
	// ID is the batch identifier shared by all records in the run.
	ID string `json:"id"`

	// Mode is the action mode of the run.
	Mode string `json:"mode"`

	// Started is the time of the first record.
	Started time.Time `json:"started"`

	// Records are the batch's journal lines in append order.
	Records []Record `json:"records"`
}

// ErrBatchNotFound indicates that no batch with the given ID exists in
// the journal.
var ErrBatchNotFound = errors.New("batch not found")

// Writer appends records to a journal file.
// It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open opens the journal at path for appending, creating the file and
// its parent directories as needed.
func Open(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit journal: %w", err)
	}

	return &Writer{file: file, path: path}, nil
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one record and syncs it to disk before returning.
func (w *Writer) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("syncing audit journal: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Read loads every batch in the journal, newest first. A missing
// journal reads as empty. Lines that do not parse, such as a torn
// final line after a crash, are skipped.
func Read(path string) ([]Batch, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Batch)
	order := make([]string, 0)
	for _, rec := range records {
		b, ok := byID[rec.BatchID]
		if !ok {
			b = &Batch{ID: rec.BatchID, Mode: rec.Mode, Started: rec.Time}
			byID[rec.BatchID] = b
			order = append(order, rec.BatchID)
		}
		b.Records = append(b.Records, rec)
	}

	batches := make([]Batch, 0, len(order))
	for _, id := range order {
		batches = append(batches, *byID[id])
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Started.After(batches[j].Started)
	})
	return batches, nil
}

// List returns up to limit batches, newest first. A limit of zero or
// less returns all of them.
func List(path string, limit int) ([]Batch, error) {
	batches, err := Read(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

// Get returns the batch with the given ID.
func Get(path, batchID string) (*Batch, error) {
	batches, err := Read(path)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if batches[i].ID == batchID {
			return &batches[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
}

// Cleanup drops records older than the retention window, rewriting the
// journal atomically. Returns the number of records dropped.
func Cleanup(path string, retention time.Duration) (int, error) {
	records, err := readRecords(path)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-retention)
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Time.After(cutoff) {
			kept = append(kept, rec)
		}
	}

	dropped := len(records) - len(kept)
	if dropped == 0 {
		return 0, nil
	}

	if err := rewrite(path, kept); err != nil {
		return 0, err
	}
	return dropped, nil
}

// readRecords parses the journal into records in append order.
func readRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit journal: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit journal: %w", err)
	}
	return records, nil
}

// rewrite replaces the journal with the given records via a temp file
// and rename, so a crash leaves either the old journal or the new one.
func rewrite(path string, records []Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".audit-*")
	if err != nil {
		return fmt.Errorf("creating temp journal: %w", err)
	}
	tmpPath := tmp.Name()

	cleanupErr := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return cleanupErr(fmt.Errorf("encoding audit record: %w", err))
		}
		data = append(data, '\n')
		if _, err := tmp.Write(data); err != nil {
			return cleanupErr(fmt.Errorf("writing temp journal: %w", err))
		}
	}

	if err := tmp.Sync(); err != nil {
		return cleanupErr(fmt.Errorf("syncing temp journal: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp journal: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing audit journal: %w", err)
	}
	return nil
}
