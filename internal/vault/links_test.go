package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func TestLinkParser_Targets(t *testing.T) {
	source := []byte("# Title with [[heading-link]]\n\n" +
		"See [[photo.png]] and ![[assets/scan.pdf|Scan]].\n" +
		"Also [[Other note#Section]] and [[#local heading]].\n\n" +
		"A [markdown link](docs/My%20File.pdf) and ![img](pic.jpg \"title\").\n" +
		"External [site](https://example.com/a.png) is ignored.\n\n" +
		"Inline `[[not-a-link.png]]` is code.\n\n" +
		"```\n[[fenced.png]]\n```\n\n" +
		"- list [[in-list.png]]\n")

	got := NewLinkParser().Targets(source)

	assert.Equal(t, []string{
		"heading-link",
		"photo.png",
		"assets/scan.pdf",
		"Other note",
		"docs/My File.pdf",
		"pic.jpg",
		"in-list.png",
	}, got)
}

func TestLinkParser_WikilinkAcrossSoftBreakIsNotJoined(t *testing.T) {
	got := NewLinkParser().Targets([]byte("[[a.png]]\n[[b.png]]\n"))
	assert.Equal(t, []string{"a.png", "b.png"}, got)
}

func TestLinkIndex_Resolve(t *testing.T) {
	files := []File{
		NewFile("assets/photo.png", testTime),
		NewFile("notes/photo.png", testTime),
		NewFile("notes/Other note.md", testTime),
		NewFile("deep/nested/scan.pdf", testTime),
		NewFile("root.md", testTime),
	}
	idx := newLinkIndex(files)

	tests := []struct {
		name   string
		target string
		source string
		want   string
		wantOK bool
	}{
		{"exact path", "assets/photo.png", "x.md", "assets/photo.png", true},
		{"note without extension", "notes/Other note", "x.md", "notes/Other note.md", true},
		{"relative to source", "photo.png", "notes/index.md", "notes/photo.png", true},
		{"basename shallowest", "scan.pdf", "x.md", "deep/nested/scan.pdf", true},
		{"basename case-insensitive", "Other Note", "x.md", "notes/Other note.md", true},
		{"partial path suffix", "nested/scan.pdf", "x.md", "deep/nested/scan.pdf", true},
		{"unknown", "missing.png", "x.md", "", false},
		{"empty", "", "x.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.resolve(tt.target, tt.source)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFS_ResolvedLinks(t *testing.T) {
	v := newTestVault(t, map[string]string{
		"index.md":         "![[photo.png]] [[photo.png]] [[missing.png]]\n",
		"notes/daily.md":   "[scan](../docs/scan.pdf)\n[[Index]]\n",
		"photo.png":        "",
		"docs/scan.pdf":    "",
		"orphan.png":       "",
		".binmeta/x.md":    "[[orphan.png]]",
		"notes/ignored.md": "```\n[[orphan.png]]\n```\n",
	})

	graph, err := v.ResolvedLinks()
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"photo.png": 2}, graph["index.md"])
	assert.Equal(t, map[string]int{"docs/scan.pdf": 1, "index.md": 1}, graph["notes/daily.md"])
	assert.Empty(t, graph["notes/ignored.md"])
	_, hidden := graph[".binmeta/x.md"]
	assert.False(t, hidden)
}
