// Package registry records which binary files already have a metadata note.
//
// The registry is a set of vault-relative paths persisted as a plain text
// sidecar, one path per line. Presence of a path means "do not generate
// again". Keys are full paths: keying by bare file name would let one
// registration suppress every same-named file in other folders.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/binmeta/internal/filelock"
)

// FileName is the sidecar file name inside the binmeta config directory.
const FileName = "binary-file-list.txt"

var lineSplit = regexp.MustCompile(`\r?\n`)

// Registry is the in-memory set plus the sidecar path it persists to.
// All methods are safe for concurrent use; Save writes a full snapshot so the
// last writer wins.
type Registry struct {
	path string

	mu    sync.RWMutex
	paths map[string]struct{}
}

// New creates an empty registry persisted at path.
func New(path string) *Registry {
	return &Registry{
		path:  path,
		paths: make(map[string]struct{}),
	}
}

// Path returns the sidecar location.
func (r *Registry) Path() string {
	return r.path
}

// Load replaces the in-memory set with the sidecar content. A missing
// sidecar yields an empty registry.
func (r *Registry) Load(ctx context.Context) (*Registry, error) {
	data, err := filelock.ReadLocked(ctx, r.path)
	if err != nil {
		if filelock.IsNotExist(err) {
			r.mu.Lock()
			r.paths = make(map[string]struct{})
			r.mu.Unlock()
			return r, nil
		}
		return nil, fmt.Errorf("load registry: %w", err)
	}

	paths := make(map[string]struct{})
	for _, line := range lineSplit.Split(strings.TrimSpace(string(data)), -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paths[line] = struct{}{}
	}

	r.mu.Lock()
	r.paths = paths
	r.mu.Unlock()
	return r, nil
}

// Save rewrites the sidecar with the current set.
func (r *Registry) Save(ctx context.Context) error {
	data := strings.Join(r.Keys(), "\n")
	if err := filelock.LockAndWrite(ctx, r.path, []byte(data)); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Has reports whether path is registered.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paths[path]
	return ok
}

// Add registers path.
func (r *Registry) Add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = struct{}{}
}

// Delete unregisters path.
func (r *Registry) Delete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// DeleteAll forgets every registered path.
func (r *Registry) DeleteAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = make(map[string]struct{})
}

// Len returns the number of registered paths.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.paths)
}

// Keys returns the registered paths sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.paths))
	for p := range r.paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	return keys
}

// Reconcile drops every registered path missing from live and persists the
// result. It returns the paths that were removed.
func (r *Registry) Reconcile(ctx context.Context, live map[string]struct{}) ([]string, error) {
	r.mu.Lock()
	var removed []string
	for p := range r.paths {
		if _, ok := live[p]; !ok {
			removed = append(removed, p)
			delete(r.paths, p)
		}
	}
	r.mu.Unlock()

	sort.Strings(removed)
	if err := r.Save(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}
