// Package frontmatter splits TOML front matter (between +++ delimiters) from
// Markdown content and edits it without disturbing unrelated text.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/starford/frontdate/internal/apperr"
)

const delim = "+++"

// frontMatterRe matches optional leading whitespace, an opening +++ line,
// the TOML block, a closing +++ at the start of a line, trailing whitespace,
// and the remaining content.
var frontMatterRe = regexp.MustCompile(`^[[:space:]]*\+\+\+(\r?\n(?:(?s:.*?)\n)??)\+\+\+[[:space:]]*(?:$|\r?\n((?s:.*))$)`)

// Document is a content file split into its front matter and content.
type Document struct {
	// FrontMatter is the raw text between the delimiters. It starts with the
	// newline that ends the opening delimiter line.
	FrontMatter string
	// Content is everything after the closing delimiter and any blank lines.
	Content string

	// newline ends the lines Render adds, taken from the opening delimiter.
	newline string
}

// Split separates the front matter from the content of text. It returns
// apperr.ErrNoFrontMatter if text does not start with a delimited block.
func Split(text string) (*Document, error) {
	m := frontMatterRe.FindStringSubmatch(text)
	if m == nil {
		return nil, apperr.ErrNoFrontMatter
	}
	doc := &Document{FrontMatter: m[1], Content: m[2], newline: "\n"}
	if strings.HasPrefix(m[1], "\r\n") {
		doc.newline = "\r\n"
	}
	return doc, nil
}

// Render reassembles the document. A single blank line separates the
// closing delimiter from non-empty content. Added line breaks follow the
// line ending of the opening delimiter.
func (d *Document) Render() []byte {
	nl := d.newline
	if nl == "" {
		nl = "\n"
	}
	out := make([]byte, 0, 2*len(delim)+len(d.FrontMatter)+len(d.Content)+2*len(nl))
	out = append(out, delim...)
	out = append(out, d.FrontMatter...)
	out = append(out, delim...)
	out = append(out, nl...)
	if d.Content != "" {
		out = append(out, nl...)
	}
	out = append(out, d.Content...)
	return out
}
