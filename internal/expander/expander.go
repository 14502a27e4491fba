// Package expander provides lookup of optional template expansion services.
//
// A service is registered under a fixed identifier and resolved on demand.
// Callers probe with TryResolve and fall back to their own expansion when
// nothing is registered.
package expander

import (
	"context"
	"sync"
	"time"
)

// TemplaterID is the identifier the generation pipeline resolves.
const TemplaterID = "templater"

// Target describes the note being expanded and the binary it documents.
type Target struct {
	NotePath   string    // vault path of the metadata note
	BinaryPath string    // vault path of the binary file
	CreatedAt  time.Time // creation time of the binary file
}

// Service expands template text for a target note.
type Service interface {
	ParseTemplate(ctx context.Context, target Target, text string) (string, error)
}

// Registry maps service identifiers to services.
// Thread-safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register installs svc under id, replacing any previous service.
// A nil svc removes the entry.
func (r *Registry) Register(id string, svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc == nil {
		delete(r.services, id)
		return
	}
	r.services[id] = svc
}

// TryResolve returns the service registered under id.
func (r *Registry) TryResolve(id string) (Service, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[id]
	return svc, ok
}
