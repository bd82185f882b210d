package doctree

import (
	"strconv"
	"strings"
)

// TextRun is one visual line of a document as produced by a parser.
type TextRun struct {
	Text     string  // Line text, trimmed
	FontSize float64 // Largest glyph size on the line
	Page     int     // 0-based page index
}

// Level is an inferred heading level. 1 is H1.
type Level int

func (l Level) String() string {
	if l <= 0 {
		return "body"
	}
	return "H" + strconv.Itoa(int(l))
}

// IsSectionBoundary reports whether a run at this level opens a new section.
// Only H1 and H2 do; deeper levels are body content.
func (l Level) IsSectionBoundary() bool {
	return l == 1 || l == 2
}

// ClassifiedRun is a TextRun with its inferred heading level.
type ClassifiedRun struct {
	TextRun
	Level Level
}

// Section is a heading plus the lines that follow it up to the next heading.
type Section struct {
	Title string   // Heading text
	Page  int      // 0-based page of the heading run
	Body  []string // Body lines in document order
}

// RankedSection is a Section scored against a query.
type RankedSection struct {
	Section
	Score float64 // Cosine similarity in [-1, 1]
	Rank  int     // 1-based position in the ranking
}

// Prefix joins the title with at most n body lines, separated by spaces.
// The title is always followed by one space, even when no body lines remain.
func (s Section) Prefix(n int) string {
	body := s.Body
	if n >= 0 && len(body) > n {
		body = body[:n]
	}
	return s.Title + " " + strings.Join(body, " ")
}
