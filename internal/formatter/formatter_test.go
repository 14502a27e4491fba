package formatter

import (
	"testing"
	"time"

	"github.com/harrison/binmeta/internal/clock"
	"github.com/harrison/binmeta/internal/extension"
	"github.com/stretchr/testify/assert"
)

var created = time.Date(2022, time.March, 4, 15, 6, 7, 890*int(time.Millisecond), time.UTC)

func newTestFormatter(exts ...string) (*Formatter, *clock.Fake) {
	clk := clock.NewFake(time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC))
	f := New(extension.NewMatcher(exts), WithClock(clk), WithLocation(time.UTC))
	return f, clk
}

func TestFormat_Tokens(t *testing.T) {
	f, _ := newTestFormatter("png", "gz", "tar.gz")

	tests := []struct {
		name     string
		template string
		path     string
		want     string
	}{
		{"name", "{{NAME}}", "folder/photo.png", "photo"},
		{"fullname", "{{FULLNAME}}", "folder/photo.png", "photo.png"},
		{"extension", "{{EXTENSION}}", "folder/photo.png", "png"},
		{"path", "{{PATH}}", "folder/photo.png", "folder/photo.png"},
		{"link", "{{LINK}}", "folder/photo.png", "[[folder/photo.png]]"},
		{"embed", "{{EMBED}}", "folder/photo.png", "![[folder/photo.png]]"},
		{"cdate", "{{CDATE:YYYY-MM-DD}}", "a.png", "2022-03-04"},
		{"now", "{{NOW:YYYY/MM/DD HH:mm}}", "a.png", "2024/12/31 09:00"},
		{"name up", "{{NAME:UP}}", "a/B.png", "B"},
		{"name low", "{{NAME:LOW}}", "a/MiXeD.png", "mixed"},
		{"extension up", "{{EXTENSION:UP}}", "a/b.png", "PNG"},
		{"path up", "{{PATH:UP}}", "dir/b.png", "DIR/B.PNG"},
		{"fullname low", "{{FULLNAME:LOW}}", "dir/B.png", "b.png"},
		{"compound extension", "{{NAME}}|{{EXTENSION}}", "folder/sample.tar.gz", "sample|tar.gz"},
		{"unwatched extension", "{{NAME}}|{{EXTENSION}}", "folder/sample.zip", "sample.zip|"},
		{"backslashes", "{{FULLNAME}}", `folder\sub\c.png`, "c.png"},
		{"trailing slashes", "{{FULLNAME}}", "folder/c.png//", "c.png"},
		{"duplicate slashes", "{{FULLNAME}}", "folder//c.png", "c.png"},
		{"repeated token", "{{NAME}}-{{NAME}}", "a.png", "a-a"},
		{"repeated link", "{{LINK}} {{LINK}}", "a.png", "[[a.png]] [[a.png]]"},
		{"end to end name", "INFO_{{NAME}}_{{EXTENSION:UP}}", "vault/photo.png", "INFO_photo_PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.template, tt.path, created))
		})
	}
}

func TestFormat_UnknownAndMalformedPassThrough(t *testing.T) {
	f, _ := newTestFormatter("png")

	inputs := []string{
		"{{UNKNOWN}}",
		"{{NAME:MID}}",
		"{{name}}",
		"{{NAME}",
		"{NAME}}",
		"{{CDATE}}",
		"{{LINK:UP}}",
		"{{ NAME }}",
		"{{CDATE:YYYY\n}}",
	}
	for _, in := range inputs {
		assert.Equal(t, in, f.Format(in, "a.png", created), in)
	}
}

func TestFormat_IdentityWithoutPlaceholders(t *testing.T) {
	f, _ := newTestFormatter("png")

	inputs := []string{"", "plain text", "{ single braces }", "}} reversed {{", "line\nbreak"}
	for _, in := range inputs {
		assert.Equal(t, in, f.Format(in, "folder/a.png", created))
	}
}

func TestFormat_DoesNotRescanExpandedText(t *testing.T) {
	f, _ := newTestFormatter("png")

	got := f.Format("{{PATH}} {{FULLNAME}}", "weird/{{NAME}}.png", created)
	assert.Equal(t, "weird/{{NAME}}.png {{NAME}}.png", got)
}

func TestFormat_NowReadsClockAtCallTime(t *testing.T) {
	f, clk := newTestFormatter("png")

	first := f.Format("{{NOW:HH:mm}}", "a.png", created)
	clk.Advance(90 * time.Minute)
	second := f.Format("{{NOW:HH:mm}}", "a.png", created)

	assert.Equal(t, "09:00", first)
	assert.Equal(t, "10:30", second)
}

func TestSplit(t *testing.T) {
	f, _ := newTestFormatter("gz", "tar.gz")

	p := f.Split("folder/sample.tar.gz")
	assert.Equal(t, Parts{FullName: "sample.tar.gz", Name: "sample", Extension: "tar.gz"}, p)

	// The suffix is removed literally, not as a pattern.
	f2, _ := newTestFormatter("tar.gz")
	assert.Equal(t, "sampletarxgz", f2.Split("sampletarxgz").Name)
}

func TestCleanPathAndBasename(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/", CleanPath("///"))
	assert.Equal(t, "a/b", CleanPath("/a/b/"))
	assert.Equal(t, "a/b", CleanPath(`\a\b`))
	assert.Equal(t, "", Basename("/"))
	assert.Equal(t, "b.png", Basename("a/b.png"))
}
