package action

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// commandTimeout is the maximum time to wait for trash commands.
const commandTimeout = 30 * time.Second

// ErrNoTrash means no way of reaching the system trash worked.
var ErrNoTrash = errors.New("no system trash available")

// recycle moves a file to the system trash. When every trash mechanism
// fails the file is left in place and an error returned; recycle never
// degrades to permanent deletion.
func recycle(path string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return recycleDarwin(path)
	case "linux":
		return recycleLinux(path)
	default:
		return "", fmt.Errorf("%w on %s", ErrNoTrash, runtime.GOOS)
	}
}

// recycleDarwin asks Finder first so "Put Back" keeps working, then
// falls back to a plain rename into ~/.Trash.
func recycleDarwin(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err == nil {
		return "", nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTrash, err)
	}
	target, err := collisionFree(filepath.Join(home, ".Trash", filepath.Base(path)))
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("moving to trash: %w", err)
	}
	return target, nil
}

// recycleLinux tries the desktop trash tools, then speaks the
// freedesktop trash layout directly.
func recycleLinux(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if gio, err := exec.LookPath("gio"); err == nil {
		if err := exec.CommandContext(ctx, gio, "trash", path).Run(); err == nil {
			return "", nil
		}
	}
	if trashPut, err := exec.LookPath("trash-put"); err == nil {
		if err := exec.CommandContext(ctx, trashPut, path).Run(); err == nil {
			return "", nil
		}
	}
	return xdgTrash(path)
}

// xdgTrash implements the freedesktop.org trash layout: the file moves
// into Trash/files and a .trashinfo file records where it came from so
// desktop tools can restore it.
func xdgTrash(path string) (string, error) {
	trashDir := filepath.Join(xdg.DataHome, "Trash")
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return "", fmt.Errorf("creating trash: %w", err)
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return "", fmt.Errorf("creating trash: %w", err)
	}

	target, err := collisionFree(filepath.Join(filesDir, filepath.Base(path)))
	if err != nil {
		return "", err
	}
	name := filepath.Base(target)

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(path), time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return "", fmt.Errorf("writing trash info: %w", err)
	}

	if err := os.Rename(path, target); err != nil {
		_ = os.Remove(infoPath)
		if isCrossDevice(err) {
			return "", fmt.Errorf("%w: %s is on a different filesystem than the trash", ErrNoTrash, path)
		}
		return "", fmt.Errorf("moving to trash: %w", err)
	}
	return target, nil
}

// escapeTrashPath percent-encodes a path per the trash spec, segment
// by segment so the separators survive.
func escapeTrashPath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
