package vault

import (
	"bytes"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// wikilinkRegex matches [[target]], [[target|alias]] and ![[embed]].
var wikilinkRegex = regexp.MustCompile(`!?\[\[([^\[\]\n]+?)\]\]`)

var schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// LinkParser extracts link targets from Markdown notes.
type LinkParser struct {
	markdown goldmark.Markdown
}

// NewLinkParser creates a LinkParser with a plain CommonMark goldmark.
func NewLinkParser() *LinkParser {
	return &LinkParser{markdown: goldmark.New()}
}

// Targets returns the raw link targets found in source, in document order.
// It understands wikilinks and embeds in running text and the destinations
// of Markdown links and images. Code spans and code blocks are ignored.
// Aliases ("|x") and subpaths ("#heading", "#^block") are stripped.
func (p *LinkParser) Targets(source []byte) []string {
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	var targets []string
	var run bytes.Buffer
	flush := func() {
		for _, m := range wikilinkRegex.FindAllSubmatch(run.Bytes(), -1) {
			if t := cleanTarget(string(m[1])); t != "" {
				targets = append(targets, t)
			}
		}
		run.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			run.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				run.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		case *ast.String:
			run.Write(node.Value)
			return ast.WalkContinue, nil
		}

		flush()
		switch node := n.(type) {
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if t := destinationTarget(node.Destination); t != "" {
				targets = append(targets, t)
			}
		case *ast.Image:
			if t := destinationTarget(node.Destination); t != "" {
				targets = append(targets, t)
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return targets
}

func cleanTarget(raw string) string {
	if i := strings.IndexByte(raw, '|'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func destinationTarget(dest []byte) string {
	raw := string(dest)
	if raw == "" || schemeRegex.MatchString(raw) {
		return ""
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return cleanTarget(raw)
}

// linkIndex resolves link targets against the set of vault files the way
// note apps do: exact path first, then relative to the linking note, then by
// unique-enough file name.
type linkIndex struct {
	paths  map[string]bool
	byName map[string][]string
}

func newLinkIndex(files []File) *linkIndex {
	idx := &linkIndex{
		paths:  make(map[string]bool, len(files)),
		byName: make(map[string][]string),
	}
	for _, f := range files {
		idx.paths[f.Path] = true
		idx.byName[strings.ToLower(f.Name)] = append(idx.byName[strings.ToLower(f.Name)], f.Path)
	}
	for name := range idx.byName {
		sort.Strings(idx.byName[name])
	}
	return idx
}

// resolve returns the vault path target points to from the note at source.
func (idx *linkIndex) resolve(target, source string) (string, bool) {
	target = NormalizePath(target)
	if target == "/" {
		return "", false
	}

	dir := path.Dir(source)
	candidates := []string{target, target + ".md"}
	if dir != "." {
		rel := NormalizePath(path.Join(dir, target))
		candidates = append(candidates, rel, rel+".md")
	}
	for _, c := range candidates {
		if idx.paths[c] {
			return c, true
		}
	}

	base := strings.ToLower(path.Base(target))
	var matches []string
	for _, name := range []string{base, base + ".md"} {
		for _, p := range idx.byName[name] {
			if strings.Contains(target, "/") && !strings.HasSuffix(strings.ToLower(p), "/"+strings.ToLower(target)) &&
				!strings.HasSuffix(strings.ToLower(p), "/"+strings.ToLower(target)+".md") {
				continue
			}
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	// Prefer a file next to the linking note, then the shallowest path.
	sort.SliceStable(matches, func(i, j int) bool {
		si, sj := path.Dir(matches[i]) == dir, path.Dir(matches[j]) == dir
		if si != sj {
			return si
		}
		di, dj := strings.Count(matches[i], "/"), strings.Count(matches[j], "/")
		if di != dj {
			return di < dj
		}
		return matches[i] < matches[j]
	})
	return matches[0], true
}

// BuildResolvedLinks parses every Markdown note with read and resolves its
// targets against files. Unresolvable targets are dropped.
func BuildResolvedLinks(files []File, read func(path string) ([]byte, error)) (map[string]map[string]int, error) {
	idx := newLinkIndex(files)
	parser := NewLinkParser()

	graph := make(map[string]map[string]int)
	for _, f := range files {
		if !strings.EqualFold(f.Extension, "md") {
			continue
		}
		source, err := read(f.Path)
		if err != nil {
			return nil, err
		}

		dests := make(map[string]int)
		for _, t := range parser.Targets(source) {
			if dest, ok := idx.resolve(t, f.Path); ok {
				dests[dest]++
			}
		}
		graph[f.Path] = dests
	}
	return graph, nil
}
