// Package extension decides whether a file is binary-managed by matching its
// name against the set of watched extensions.
package extension

import (
	"sort"
	"strings"
)

// Matcher owns the watched extension set. Extensions are stored without a
// leading dot and compared case-sensitively; use Normalize before Add.
type Matcher struct {
	extensions map[string]struct{}
}

// NewMatcher creates a Matcher seeded with exts.
func NewMatcher(exts []string) *Matcher {
	m := &Matcher{extensions: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		m.Add(ext)
	}
	return m
}

// BestMatch returns the longest watched extension that name ends with.
// Dots are scanned from the left, so for "archive.tar.gz" with both "tar.gz"
// and "gz" watched, "tar.gz" wins. A trailing bare dot never matches.
func (m *Matcher) BestMatch(name string) (string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] != '.' {
			continue
		}
		ext := name[i+1:]
		if ext == "" {
			return "", false
		}
		if _, ok := m.extensions[ext]; ok {
			return ext, true
		}
	}
	return "", false
}

// Add registers ext.
func (m *Matcher) Add(ext string) {
	m.extensions[ext] = struct{}{}
}

// Remove unregisters ext.
func (m *Matcher) Remove(ext string) {
	delete(m.extensions, ext)
}

// Has reports whether ext is registered.
func (m *Matcher) Has(ext string) bool {
	_, ok := m.extensions[ext]
	return ok
}

// List returns the registered extensions in sorted order.
func (m *Matcher) List() []string {
	out := make([]string, 0, len(m.extensions))
	for ext := range m.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Normalize turns user input such as " .PNG" into the stored form "png".
func Normalize(ext string) string {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimLeft(ext, ".")
	return strings.ToLower(ext)
}
