package extension

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestMatch(t *testing.T) {
	m := NewMatcher([]string{"png", "gz", "tar.gz", "pdf"})

	tests := []struct {
		name    string
		file    string
		wantExt string
		wantOK  bool
	}{
		{"simple", "photo.png", "png", true},
		{"longest suffix wins", "archive.tar.gz", "tar.gz", true},
		{"only short suffix watched", "archive.zip.gz", "gz", true},
		{"no dot", "README", "", false},
		{"unwatched", "notes.md", "", false},
		{"trailing dot", "photo.png.", "", false},
		{"case sensitive", "photo.PNG", "", false},
		{"dotfile", ".png", "png", true},
		{"multiple dots before match", "my.holiday.photo.png", "png", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := m.BestMatch(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

// BestMatch must agree with "suffix after the earliest dot that is watched".
func TestBestMatch_EarliestDotProperty(t *testing.T) {
	exts := []string{"a", "b.a", "c.b.a", "x"}
	m := NewMatcher(exts)
	set := map[string]bool{}
	for _, e := range exts {
		set[e] = true
	}

	names := []string{"f.c.b.a", "f.b.a", "f.a", "f.x.a", "f.a.x", "f.y", "f..a", "f.c.b.a.", "c.b.a"}
	for _, name := range names {
		want, wantOK := "", false
		for i := 0; i < len(name); i++ {
			if name[i] != '.' {
				continue
			}
			suffix := name[i+1:]
			if suffix == "" {
				break
			}
			if set[suffix] {
				want, wantOK = suffix, true
				break
			}
		}

		got, ok := m.BestMatch(name)
		assert.Equal(t, wantOK, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAddRemoveHas(t *testing.T) {
	m := NewMatcher(nil)
	assert.False(t, m.Has("png"))

	m.Add("png")
	m.Add("jpg")
	assert.True(t, m.Has("png"))
	assert.Equal(t, []string{"jpg", "png"}, m.List())

	m.Remove("png")
	assert.False(t, m.Has("png"))
	_, ok := m.BestMatch("a.png")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "png", Normalize(" .PNG "))
	assert.Equal(t, "tar.gz", Normalize("..tar.gz"))
	assert.False(t, strings.HasPrefix(Normalize(".pdf"), "."))
}
