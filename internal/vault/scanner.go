package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanResult holds the files found by Scan.
type ScanResult struct {
	// Files is sorted by Path.
	Files []File
	// Errors collects non-fatal problems such as unreadable subdirectories.
	Errors []error
}

// Scan walks root and returns every visible regular file. Directories whose
// name starts with "." (including the binmeta config dir) are skipped.
// Entries that cannot be read are recorded in Errors and the walk goes on.
func Scan(root string) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault is not a directory: %s", root)
	}

	result := &ScanResult{Files: make([]File, 0)}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", p, err))
			return nil
		}
		if p == root {
			return nil
		}

		if d.IsDir() {
			if isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || isHidden(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativise %s: %w", p, err))
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to stat %s: %w", p, err))
			return nil
		}

		result.Files = append(result.Files, NewFile(filepath.ToSlash(rel), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	return result, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
