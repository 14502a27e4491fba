// Package formatter expands the fixed {{TOKEN[:MODIFIER]}} placeholder grammar
// used in metadata file name formats and note templates.
//
// Supported placeholders:
//
//	{{NAME}}         file name without the matched extension
//	{{FULLNAME}}     file name with extension
//	{{EXTENSION}}    matched extension, no dot
//	{{PATH}}         vault path as supplied
//	{{CDATE:<fmt>}}  file creation time, moment-style format
//	{{NOW:<fmt>}}    current time, moment-style format
//	{{LINK}}         [[path]]
//	{{EMBED}}        ![[path]]
//
// NAME, FULLNAME, EXTENSION and PATH accept a ":UP" or ":LOW" suffix.
// Anything else, including malformed placeholders, is left untouched.
package formatter

import (
	"regexp"
	"strings"
	"time"

	"github.com/harrison/binmeta/internal/clock"
)

// placeholderRegex matches every placeholder kind in one pass. Replacement
// text is never re-scanned, so a path containing "{{NAME}}" stays literal.
var placeholderRegex = regexp.MustCompile(
	`\{\{(?:(CDATE|NOW):([^}\n\r]*)|(PATH|FULLNAME|NAME|EXTENSION)(:UP|:LOW)?|(LINK|EMBED))\}\}`,
)

// ExtensionMatcher finds the watched extension of a file name.
type ExtensionMatcher interface {
	BestMatch(name string) (string, bool)
}

// Formatter expands placeholders against a file path and creation time.
type Formatter struct {
	matcher  ExtensionMatcher
	clock    clock.Clock
	location *time.Location
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithClock sets the clock read by {{NOW:}}.
func WithClock(c clock.Clock) Option {
	return func(f *Formatter) { f.clock = c }
}

// WithLocation sets the time zone used to render dates.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) { f.location = loc }
}

// New creates a Formatter that derives extensions with matcher.
func New(matcher ExtensionMatcher, opts ...Option) *Formatter {
	f := &Formatter{
		matcher:  matcher,
		clock:    clock.Real{},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format expands template for the file at path created at createdAt.
func (f *Formatter) Format(template, path string, createdAt time.Time) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	parts := f.Split(path)
	now := f.clock.Now()

	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		sub := placeholderRegex.FindStringSubmatch(match)
		switch {
		case sub[1] == "CDATE":
			return FormatDate(createdAt.In(f.location), sub[2])
		case sub[1] == "NOW":
			return FormatDate(now.In(f.location), sub[2])
		case sub[3] != "":
			return applyCase(parts.valueOf(sub[3], path), sub[4])
		case sub[5] == "LINK":
			return "[[" + path + "]]"
		case sub[5] == "EMBED":
			return "![[" + path + "]]"
		}
		return match
	})
}

// Parts is the name split of a path.
type Parts struct {
	FullName  string
	Name      string
	Extension string
}

func (p Parts) valueOf(token, path string) string {
	switch token {
	case "PATH":
		return path
	case "FULLNAME":
		return p.FullName
	case "NAME":
		return p.Name
	case "EXTENSION":
		return p.Extension
	}
	return ""
}

// Split derives the full name, bare name and matched extension of path.
func (f *Formatter) Split(path string) Parts {
	fullname := Basename(path)
	ext := ""
	if f.matcher != nil {
		ext, _ = f.matcher.BestMatch(fullname)
	}

	name := fullname
	if ext != "" {
		name = strings.TrimSuffix(fullname, "."+ext)
	}
	return Parts{FullName: fullname, Name: name, Extension: ext}
}

// Basename returns the last segment of path after converting backslashes to
// forward slashes and trimming leading and trailing slashes. The root path
// yields "".
func Basename(path string) string {
	cleaned := CleanPath(path)
	if cleaned == "/" {
		return ""
	}
	return cleaned[strings.LastIndexByte(cleaned, '/')+1:]
}

// CleanPath normalises separators to "/" and trims surrounding slashes.
// Empty and all-slash inputs become "/".
func CleanPath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

func applyCase(value, modifier string) string {
	switch modifier {
	case ":UP":
		return strings.ToUpper(value)
	case ":LOW":
		return strings.ToLower(value)
	default:
		return value
	}
}
