package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/sectionrank/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become runs
// with a synthetic size per depth; every other block line is body size.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]doctree.TextRun, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var runs []doctree.TextRun
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := strings.Join(blockLines(h, src), " ")
			runs = appendLines(runs, title, headingSize(h.Level), 0)
			continue
		}
		for _, line := range blockLines(n, src) {
			runs = appendLines(runs, line, BodySize, 0)
		}
	}
	return runs, nil
}

// blockLines returns the raw source lines of a leaf block, or of every leaf
// block nested under a container block.
func blockLines(n ast.Node, src []byte) []string {
	if n.Type() != ast.TypeBlock {
		return nil
	}
	if c := n.FirstChild(); c != nil && c.Type() == ast.TypeBlock {
		var out []string
		for ; c != nil; c = c.NextSibling() {
			out = append(out, blockLines(c, src)...)
		}
		return out
	}

	var out []string
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimSpace(string(seg.Value(src))))
	}
	return out
}
