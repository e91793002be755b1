package action

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// moveToFolder relocates a file into the destination folder, renaming
// on collision and copying when the destination is on another
// filesystem.
func (e *Executor) moveToFolder(path string) (string, error) {
	target, err := collisionFree(filepath.Join(e.dest, filepath.Base(path)))
	if err != nil {
		return "", err
	}

	err = os.Rename(path, target)
	if err == nil {
		return target, nil
	}
	if !isCrossDevice(err) {
		return "", fmt.Errorf("moving %s: %w", path, err)
	}

	if err := copyFile(path, target); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		// The copy exists but the original is still in place, so the
		// action has not removed anything yet.
		return target, fmt.Errorf("removing original %s: %w", path, err)
	}
	return target, nil
}

// collisionFree returns target if nothing is there, otherwise the
// first "name (N).ext" variant that is free.
func collisionFree(target string) (string, error) {
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return target, nil
	}

	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(target, ext)
	for n := 1; n < 10000; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s", target)
}

// isCrossDevice reports whether a rename failed because source and
// destination are on different filesystems.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// copyFile copies content and permissions. The copy is synced to disk
// before returning so the original is only removed once the copy is
// durable.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("syncing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

// replaceWithLink swaps path for a link to target. The link is created
// under a temporary name and renamed over path, so path never stops
// existing.
func replaceWithLink(path, target string, link func(string, string) error) error {
	tmp := path + ".dupes-tmp"
	_ = os.Remove(tmp) // Leftover from an interrupted run.

	if err := link(target, tmp); err != nil {
		return fmt.Errorf("linking %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
