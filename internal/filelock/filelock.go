// Package filelock guards the small sidecar files binmeta keeps inside the
// vault (the registry and the config) with an advisory flock and replaces
// them atomically, so a reader never observes a half-written list.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often a blocked lock attempt is retried.
const retryDelay = 5 * time.Millisecond

// lockPath returns the lock file used for target, e.g. "list.txt.lock".
func lockPath(target string) string {
	return target + ".lock"
}

// LockAndWrite takes the exclusive lock for path, writes data atomically and
// releases the lock. It gives up when ctx is done.
func LockAndWrite(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	lock := flock.New(lockPath(path))
	locked, err := lock.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", path)
	}
	defer lock.Unlock()

	return AtomicWrite(path, data)
}

// ReadLocked reads path while holding the shared lock, so it never races a
// concurrent LockAndWrite. A missing file is reported as os.ErrNotExist.
func ReadLocked(ctx context.Context, path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	lock := flock.New(lockPath(path))
	locked, err := lock.TryRLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire read lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire read lock on %s", path)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// AtomicWrite writes data to a temp file next to path and renames it over
// path. If any step fails the previous content of path is left intact.
func AtomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// IsNotExist reports whether err means the sidecar file is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
