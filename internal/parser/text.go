package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/sectionrank/internal/doctree"
)

// TextParser handles plain text files. Every non-blank line is a run of the
// same size; form feeds advance the page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]doctree.TextRun, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var runs []doctree.TextRun
	page := 0
	for scanner.Scan() {
		line := scanner.Text()
		for strings.Contains(line, "\f") {
			before, after, _ := strings.Cut(line, "\f")
			runs = appendLines(runs, before, BodySize, page)
			page++
			line = after
		}
		runs = appendLines(runs, line, BodySize, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
