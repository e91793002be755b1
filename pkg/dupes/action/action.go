// Package action removes duplicate files once a keeper has been
// chosen. Every mode re-checks a file against its scan-time size and
// modification time immediately before touching it, and every touched
// file is written to the audit journal before the executor moves on.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/dupes/pkg/dupes/audit"
	"github.com/jamesainslie/dupes/pkg/dupes/groups"
	"github.com/jamesainslie/dupes/pkg/dupes/logging"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// Mode selects what happens to the doomed members of a group.
type Mode string

// Removal modes.
const (
	// ModeRecycle moves files to the system trash. It never falls back
	// to permanent deletion.
	ModeRecycle Mode = "recycle"

	// ModeMove relocates files into a destination folder.
	ModeMove Mode = "move"

	// ModeDelete removes files permanently. It requires WithForce.
	ModeDelete Mode = "delete"

	// ModeHardlink replaces files with hard links to the keeper.
	ModeHardlink Mode = "hardlink"

	// ModeSymlink replaces files with symbolic links to the keeper.
	ModeSymlink Mode = "symlink"
)

// ErrUnknownMode indicates that the mode string could not be parsed.
var ErrUnknownMode = errors.New("unknown action mode")

// ParseMode parses a string into a Mode (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recycle", "trash":
		return ModeRecycle, nil
	case "move":
		return ModeMove, nil
	case "delete":
		return ModeDelete, nil
	case "hardlink":
		return ModeHardlink, nil
	case "symlink":
		return ModeSymlink, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: recycle, move, delete, hardlink, symlink)", ErrUnknownMode, s)
	}
}

// Sentinel errors for executor configuration and guards.
var (
	// ErrForceRequired means permanent deletion was requested without
	// WithForce.
	ErrForceRequired = errors.New("permanent deletion requires force")

	// ErrNoDestination means move mode was requested without a
	// destination folder.
	ErrNoDestination = errors.New("move mode requires a destination folder")

	// ErrChangedSinceScan means a file's size or modification time no
	// longer matches what the scanner recorded.
	ErrChangedSinceScan = errors.New("file changed since scan")

	// ErrKeeperMissing means the member selected to keep no longer
	// exists, so the rest of the group is left alone.
	ErrKeeperMissing = errors.New("kept file is missing")

	// ErrKeeperChanged means the member selected to keep changed since
	// the scan, so the rest of the group is left alone.
	ErrKeeperChanged = errors.New("kept file changed since scan")
)

// FileError pairs a path with the failure that occurred there.
type FileError struct {
	// Path is the file the action failed on.
	Path string `json:"path"`

	// Error is the failure message.
	Error string `json:"error"`
}

// Summary reports what one Execute call did.
type Summary struct {
	// BatchID identifies the run in the audit journal.
	BatchID string `json:"batch_id"`

	// Mode is the removal mode of the run.
	Mode Mode `json:"mode"`

	// DryRun marks a rehearsal; nothing was touched.
	DryRun bool `json:"dry_run,omitempty"`

	// Attempted is the number of doomed files considered.
	Attempted int `json:"attempted"`

	// Succeeded is the number of files acted on.
	Succeeded int `json:"succeeded"`

	// Skipped is the number of files left alone by a safety guard.
	Skipped int `json:"skipped"`

	// Failed is the number of files the action errored on.
	Failed int `json:"failed"`

	// BytesReclaimed is the combined size of files acted on. For move
	// mode the bytes leave the scanned tree rather than the disk.
	BytesReclaimed int64 `json:"bytes_reclaimed"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Errors lists per-file failures. The batch continues past them.
	Errors []FileError `json:"errors,omitempty"`
}

// Executor applies a removal mode to duplicate groups.
type Executor struct {
	mode    Mode
	dest    string
	force   bool
	dryRun  bool
	journal *audit.Writer
	log     *logging.Logger
}

// Option is a functional option for configuring an Executor.
type Option func(*Executor)

// WithDestination sets the folder files are moved into (move mode).
func WithDestination(dir string) Option {
	return func(e *Executor) {
		e.dest = dir
	}
}

// WithForce permits permanent deletion.
func WithForce(force bool) Option {
	return func(e *Executor) {
		e.force = force
	}
}

// WithDryRun makes Execute record what it would do without touching
// any file.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// WithAudit sets the journal actions are recorded in.
func WithAudit(w *audit.Writer) Option {
	return func(e *Executor) {
		e.journal = w
	}
}

// New creates an Executor for the given mode.
func New(mode Mode, opts ...Option) (*Executor, error) {
	e := &Executor{
		mode: mode,
		log:  logging.Get("action"),
	}
	for _, opt := range opts {
		opt(e)
	}

	switch mode {
	case ModeRecycle, ModeHardlink, ModeSymlink:
	case ModeMove:
		if e.dest == "" {
			return nil, ErrNoDestination
		}
	case ModeDelete:
		if !e.force {
			return nil, ErrForceRequired
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	return e, nil
}

// Execute applies the mode to every doomed member of every group.
// Cancellation is polled between files; on cancellation the partial
// summary is returned along with the context error, and the audit
// journal already names everything done so far.
func (e *Executor) Execute(ctx context.Context, gs []groups.Group) (*Summary, error) {
	startTime := time.Now()

	summary := &Summary{
		BatchID: uuid.NewString(),
		Mode:    e.mode,
		DryRun:  e.dryRun,
	}

	if e.mode == ModeMove && !e.dryRun {
		if err := os.MkdirAll(e.dest, 0o755); err != nil {
			return nil, fmt.Errorf("creating destination folder: %w", err)
		}
	}

	e.log.Info("starting batch",
		"batch", summary.BatchID, "mode", e.mode, "groups", len(gs), "dry_run", e.dryRun)

	for i := range gs {
		g := &gs[i]
		if len(g.Files) < 2 {
			continue
		}
		if g.Keep < 0 || g.Keep >= len(g.Files) {
			return summary, fmt.Errorf("group %d: keep index %d out of range", g.ID, g.Keep)
		}

		guardErr := e.checkKeeper(g.Kept())

		for _, doomed := range g.Doomed() {
			if err := ctx.Err(); err != nil {
				summary.Elapsed = time.Since(startTime)
				return summary, err
			}

			summary.Attempted++
			rec := audit.Record{
				Time:        time.Now(),
				BatchID:     summary.BatchID,
				Mode:        string(e.mode),
				Path:        doomed.Path,
				Size:        doomed.Size,
				ModTimeNS:   doomed.ModTime.UnixNano(),
				Fingerprint: g.Fingerprint,
				DryRun:      e.dryRun,
			}

			switch {
			case guardErr != nil:
				summary.Skipped++
				rec.Outcome = audit.OutcomeSkipped
				rec.Error = guardErr.Error()
				e.log.Warn("skipping file", "path", doomed.Path, "reason", guardErr)

			default:
				target, err := e.actOn(doomed, g.Kept())
				rec.Target = target
				rec.Time = time.Now()
				switch {
				case errors.Is(err, ErrChangedSinceScan), errors.Is(err, os.ErrNotExist):
					summary.Skipped++
					rec.Outcome = audit.OutcomeSkipped
					rec.Error = err.Error()
					e.log.Warn("skipping file", "path", doomed.Path, "reason", err)
				case err != nil:
					summary.Failed++
					rec.Outcome = audit.OutcomeFailed
					rec.Error = err.Error()
					summary.Errors = append(summary.Errors, FileError{Path: doomed.Path, Error: err.Error()})
					e.log.Error("action failed", "path", doomed.Path, "error", err)
				default:
					summary.Succeeded++
					summary.BytesReclaimed += doomed.Size
					rec.Outcome = audit.OutcomeOK
					e.log.Debug("acted on file", "path", doomed.Path, "target", target)
				}
			}

			if e.journal != nil {
				if err := e.journal.Append(rec); err != nil {
					summary.Elapsed = time.Since(startTime)
					return summary, fmt.Errorf("recording action: %w", err)
				}
			}
		}
	}

	summary.Elapsed = time.Since(startTime)
	e.log.Info("batch finished",
		"batch", summary.BatchID,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"reclaimed", types.FormatSize(summary.BytesReclaimed))
	return summary, nil
}

// checkKeeper verifies that the kept member still exists unchanged.
// A group whose keeper is gone or different is too dangerous to touch.
func (e *Executor) checkKeeper(kept types.FileRecord) error {
	info, err := os.Lstat(kept.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrKeeperMissing, kept.Path)
		}
		return fmt.Errorf("stat keeper %s: %w", kept.Path, err)
	}
	if info.Size() != kept.Size || info.ModTime().UnixNano() != kept.ModTime.UnixNano() {
		return fmt.Errorf("%w: %s", ErrKeeperChanged, kept.Path)
	}
	return nil
}

// checkUnchanged verifies that a doomed file still matches its
// scan-time size and modification time.
func checkUnchanged(rec types.FileRecord) error {
	info, err := os.Lstat(rec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", rec.Path, os.ErrNotExist)
		}
		return fmt.Errorf("stat %s: %w", rec.Path, err)
	}
	if info.Size() != rec.Size || info.ModTime().UnixNano() != rec.ModTime.UnixNano() {
		return fmt.Errorf("%w: %s", ErrChangedSinceScan, rec.Path)
	}
	return nil
}

// actOn re-checks the doomed file and applies the mode to it.
// Returns the action target for the audit record, where one exists.
func (e *Executor) actOn(doomed, kept types.FileRecord) (string, error) {
	if err := checkUnchanged(doomed); err != nil {
		return "", err
	}

	if e.dryRun {
		return e.dryRunTarget(kept), nil
	}

	switch e.mode {
	case ModeRecycle:
		return recycle(doomed.Path)
	case ModeMove:
		return e.moveToFolder(doomed.Path)
	case ModeDelete:
		return "", os.Remove(doomed.Path)
	case ModeHardlink:
		return kept.Path, replaceWithLink(doomed.Path, kept.Path, os.Link)
	case ModeSymlink:
		return kept.Path, replaceWithLink(doomed.Path, kept.Path, os.Symlink)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, e.mode)
	}
}

// dryRunTarget names where the file would end up, for the journal.
func (e *Executor) dryRunTarget(kept types.FileRecord) string {
	switch e.mode {
	case ModeMove:
		return e.dest
	case ModeHardlink, ModeSymlink:
		return kept.Path
	default:
		return ""
	}
}
