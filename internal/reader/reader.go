// Package reader splits story content into pages for the paged reader.
package reader

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultWordsPerPage is the page size used when the caller passes none.
const DefaultWordsPerPage = 80

// Reading time of one page, in tenths of a minute (2.4 minutes).
const tenthsPerPage = 24

// Page is one screen of the reader.
type Page struct {
	Number     int
	Paragraphs []string
}

// Text joins the page's paragraphs with blank lines.
func (p Page) Text() string {
	return strings.Join(p.Paragraphs, "\n\n")
}

var md = goldmark.New()

// Paragraphs parses content as Markdown and returns the plain text of each
// paragraph, heading and code block in order. Completions often carry
// emphasis or headings; the markup is dropped. Indented or fenced blocks are
// still story text and are kept as one paragraph each.
func Paragraphs(content string) []string {
	source := []byte(content)
	doc := md.Parser().Parse(text.NewReader(source))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock:
			if p := strings.TrimSpace(plainText(n, source)); p != "" {
				out = append(out, p)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			if p := blockText(n, source); p != "" {
				out = append(out, p)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// blockText joins the raw lines of a code block with single spaces.
func blockText(n ast.Node, source []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if l := strings.TrimSpace(string(seg.Value(source))); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// Paginate groups the paragraphs of content into pages of at most
// wordsPerPage words. A paragraph is never split, so a single long
// paragraph gets a page of its own. Content with no text yields no pages.
func Paginate(content string, wordsPerPage int) []Page {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}

	var (
		pages   []Page
		current []string
		words   int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		pages = append(pages, Page{Number: len(pages) + 1, Paragraphs: current})
		current, words = nil, 0
	}

	for _, p := range Paragraphs(content) {
		n := len(strings.Fields(p))
		if words > 0 && words+n > wordsPerPage {
			flush()
		}
		current = append(current, p)
		words += n
	}
	flush()
	return pages
}

// RemainingMinutes estimates the reading time left when current pages of
// total have been turned.
func RemainingMinutes(total, current int) int {
	left := total - current
	if left <= 0 {
		return 0
	}
	return (left*tenthsPerPage + 9) / 10
}

// Cursor tracks the open page of a paged story.
type Cursor struct {
	Total   int
	Current int
}

// Next turns the page. It reports false when already on the last page,
// which is where the reader hands off to the end screen.
func (c *Cursor) Next() bool {
	if c.Current >= c.Total-1 {
		return false
	}
	c.Current++
	return true
}

// Prev goes back one page, stopping at the first.
func (c *Cursor) Prev() {
	if c.Current > 0 {
		c.Current--
	}
}

// RemainingMinutes is the estimate for the open page.
func (c Cursor) RemainingMinutes() int {
	return RemainingMinutes(c.Total, c.Current)
}
