// Package vault models the note vault binmeta works on: a directory of
// Markdown notes and attachments addressed by slash-separated paths relative
// to the vault root.
//
// The Vault interface is what the generation pipeline consumes. FS implements
// it on the local filesystem, Watcher turns filesystem notifications into
// vault events and links.go computes the resolved link graph of all notes.
package vault

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrExists is returned by Create when the target path is taken.
	ErrExists = errors.New("file already exists")

	// ErrNotFound is returned when a path does not name a file.
	ErrNotFound = errors.New("file not found")

	// ErrOutsideVault is returned for paths that escape the vault root.
	ErrOutsideVault = errors.New("path is outside the vault")

	// ErrPartialScan is returned by Files together with the files that could
	// be listed when part of the vault was unreadable.
	ErrPartialScan = errors.New("vault listing is incomplete")
)

// File describes a regular file in the vault.
type File struct {
	// Path is vault-relative and slash-separated, e.g. "assets/photo.png".
	Path string
	// Name is the last path segment, e.g. "photo.png".
	Name string
	// Extension is the text after the last dot of Name, without the dot.
	Extension string
	// CTime is the file's creation timestamp as far as the platform exposes it.
	CTime time.Time
}

// Vault is the storage collaborator used by the generation pipeline.
type Vault interface {
	// Exists reports whether any file or folder lives at path.
	Exists(path string) (bool, error)
	// Read returns the content of the file at path.
	Read(path string) (string, error)
	// Create writes a new file, creating parent folders as needed.
	Create(path, content string) (File, error)
	// Modify replaces the content of an existing file.
	Modify(path, content string) error
	// Files lists every visible file in the vault. When some folders cannot
	// be read it returns what it found and an error wrapping ErrPartialScan.
	Files() ([]File, error)
	// FileByPath returns the file at path; false for folders and missing paths.
	FileByPath(path string) (File, bool)
	// ResolvedLinks maps each note path to the files it links to and how often.
	ResolvedLinks() (map[string]map[string]int, error)
}

var slashRun = regexp.MustCompile(`[\\/]+`)

// NormalizePath converts p into canonical vault form: forward slashes only,
// no repeated, leading or trailing slash. Other characters are kept as they
// are since vault paths name real files. The vault root is "/".
func NormalizePath(p string) string {
	p = slashRun.ReplaceAllString(p, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

// Join joins a folder and a name into a normalised vault path.
func Join(folder, name string) string {
	return NormalizePath(folder + "/" + name)
}

// NewFile builds the File value for a vault path.
func NewFile(p string, ctime time.Time) File {
	name := path.Base(p)
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}
	return File{Path: p, Name: name, Extension: ext, CTime: ctime}
}
