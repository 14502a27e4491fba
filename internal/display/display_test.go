package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoticeRender_TitleOnly(t *testing.T) {
	out := Notice{Level: LevelWarn, Title: "Template file meta.md is invalid"}.Render(false)
	assert.Equal(t, "Warning: Template file meta.md is invalid\n", out)
}

func TestNoticeRender_AllParts(t *testing.T) {
	n := Notice{
		Level:      LevelError,
		Title:      "Expander failed",
		Message:    "exit status 1",
		Files:      []string{"meta/INFO_a.md", "a.png"},
		Suggestion: "Check expander.command",
	}
	out := n.Render(false)

	assert.True(t, strings.HasPrefix(out, "Error: Expander failed\n"))
	assert.Contains(t, out, "    exit status 1\n")
	assert.Contains(t, out, "    Affected files:\n      1. meta/INFO_a.md\n      2. a.png\n")
	assert.Contains(t, out, "    Suggestion: Check expander.command\n")
}

func TestNoticeRender_SingleFileAndColor(t *testing.T) {
	out := Notice{Level: LevelInfo, Title: "x", Files: []string{"a.png"}}.Render(true)
	assert.Contains(t, out, "Affected file:\n")
	assert.Contains(t, out, "\x1b[", "coloured output carries ANSI codes")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "Info", LevelInfo.String())
	assert.Equal(t, "Warning", LevelWarn.String())
	assert.Equal(t, "Error", LevelError.String())
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	NewWriterNotifier(&buf).Notify(Notice{Level: LevelInfo, Title: "hello"})
	assert.Equal(t, "Info: hello\n", buf.String())

	NewWriterNotifier(nil).Notify(Notice{Title: "dropped"})
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Notify(Notice{Title: "one"})
	r.Notify(Notice{Title: "two"})

	got := r.Notices()
	assert.Len(t, got, 2)
	got[0].Title = "mutated"
	assert.Equal(t, "one", r.Notices()[0].Title)
}

func TestProgressIndicator(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressIndicator(&buf, "Generating metadata")
	p.Start(2)
	p.Step("a.png")
	p.Step("b/c.pdf")
	p.Complete("notes created")

	assert.Equal(t, "Generating metadata (2 files):\n  [1/2] a.png\n  [2/2] b/c.pdf\n✓ 2 notes created\n", buf.String())
}
