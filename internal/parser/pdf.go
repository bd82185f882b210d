package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/sectionrank/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads positioned glyphs with the Go
// library and falls back to pdftotext (which loses font sizes) if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]doctree.TextRun, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "sectionrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	runs, err := extractPDFRuns(tmpPath)
	if err != nil && p.FallbackPdftotext {
		runs, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return runs, nil
}

func extractPDFRuns(path string) (runs []doctree.TextRun, err error) {
	// The library panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			runs, err = nil, fmt.Errorf("pdf content stream: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		runs = append(runs, pageLines(page.Content().Text, i-1)...)
	}
	return runs, nil
}

type pdfLine struct {
	y      float64
	glyphs []pdflib.Text
}

// pageLines groups the glyphs of one page into visual lines. Glyphs whose
// baselines are within a fraction of their font size share a line. Lines are
// returned top to bottom, glyphs left to right.
func pageLines(glyphs []pdflib.Text, page int) []doctree.TextRun {
	var lines []*pdfLine
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		tol := math.Max(1, 0.3*math.Abs(g.FontSize))
		var line *pdfLine
		for _, l := range lines {
			if math.Abs(l.y-g.Y) <= tol {
				line = l
				break
			}
		}
		if line == nil {
			line = &pdfLine{y: g.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}

	// PDF user space has its origin at the bottom left.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var runs []doctree.TextRun
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })

		var sb strings.Builder
		var size float64
		for i, g := range l.glyphs {
			gs := math.Abs(g.FontSize)
			if gs > size {
				size = gs
			}
			if i > 0 {
				prev := l.glyphs[i-1]
				gap := g.X - (prev.X + prev.W)
				if gap > 0.25*math.Max(gs, math.Abs(prev.FontSize)) {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.S)
		}

		text := strings.Join(strings.Fields(sb.String()), " ")
		if text == "" {
			continue
		}
		runs = append(runs, doctree.TextRun{
			Text:     text,
			FontSize: math.Round(size*10) / 10,
			Page:     page,
		})
	}
	return runs
}

func extractPdftotext(path string) ([]doctree.TextRun, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	var runs []doctree.TextRun
	for i, page := range splitPages(string(out)) {
		runs = appendLines(runs, page, BodySize, i)
	}
	return runs, nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
