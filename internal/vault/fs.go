package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FS is a Vault backed by a directory on the local filesystem.
type FS struct {
	root string
}

// NewFS returns a vault rooted at dir. The directory must exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *FS) Root() string {
	return v.root
}

// Abs maps a vault path onto the filesystem.
func (v *FS) Abs(p string) (string, error) {
	p = NormalizePath(p)
	if p == "/" {
		return v.root, nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideVault, p)
		}
	}
	return filepath.Join(v.root, filepath.FromSlash(p)), nil
}

// Rel maps an absolute filesystem path back to a vault path.
func (v *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, abs)
	}
	return NormalizePath(rel), nil
}

// Exists reports whether a file or folder lives at p.
func (v *FS) Exists(p string) (bool, error) {
	abs, err := v.Abs(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p, err)
}

// Read returns the content of the file at p.
func (v *FS) Read(p string) (string, error) {
	abs, err := v.Abs(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// Create writes a new file at p. It fails with ErrExists if p is taken.
func (v *FS) Create(p, content string) (File, error) {
	abs, err := v.Abs(p)
	if err != nil {
		return File{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return File{}, fmt.Errorf("create folder for %s: %w", p, err)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return File{}, fmt.Errorf("%w: %s", ErrExists, p)
		}
		return File{}, fmt.Errorf("create %s: %w", p, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return File{}, fmt.Errorf("write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return File{}, fmt.Errorf("close %s: %w", p, err)
	}

	ctime := time.Now()
	if info, err := os.Stat(abs); err == nil {
		ctime = info.ModTime()
	}
	return NewFile(NormalizePath(p), ctime), nil
}

// Modify replaces the content of the existing file at p.
func (v *FS) Modify(p, content string) error {
	if _, ok := v.FileByPath(p); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	abs, err := v.Abs(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("modify %s: %w", p, err)
	}
	return nil
}

// Files lists every visible file in the vault sorted by path.
func (v *FS) Files() ([]File, error) {
	result, err := Scan(v.root)
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return result.Files, fmt.Errorf("%w: %w", ErrPartialScan, errors.Join(result.Errors...))
	}
	return result.Files, nil
}

// FileByPath returns the regular file at p.
func (v *FS) FileByPath(p string) (File, bool) {
	abs, err := v.Abs(p)
	if err != nil {
		return File{}, false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return File{}, false
	}
	return NewFile(NormalizePath(p), info.ModTime()), true
}

// ResolvedLinks parses every note in the vault and returns its link graph.
func (v *FS) ResolvedLinks() (map[string]map[string]int, error) {
	files, err := v.Files()
	if err != nil {
		return nil, err
	}
	return BuildResolvedLinks(files, func(p string) ([]byte, error) {
		abs, err := v.Abs(p)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(abs)
	})
}
