package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sectionrank/internal/doctree"
)

// Parser converts raw document bytes into positioned text runs, one per
// visual line, in reading order.
type Parser interface {
	Parse(r io.Reader, filename string) ([]doctree.TextRun, error)
}

// ExtractionError reports a document that could not be turned into runs.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Parse picks a parser for filename, runs it and wraps any failure in an
// ExtractionError.
func Parse(r io.Reader, filename string, opts Options) ([]doctree.TextRun, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, &ExtractionError{File: filename, Err: err}
	}
	runs, err := p.Parse(r, filename)
	if err != nil {
		return nil, &ExtractionError{File: filename, Err: err}
	}
	return runs, nil
}

// Synthetic font sizes for formats that carry heading markup instead of
// measured glyph sizes.
const (
	BodySize = 11.0
)

// headingSize maps a markup heading depth (1-6) to a synthetic font size.
func headingSize(level int) float64 {
	switch level {
	case 1:
		return 24
	case 2:
		return 20
	case 3:
		return 16
	case 4:
		return 14
	case 5:
		return 13
	default:
		return 12
	}
}

// appendLines adds one run per non-blank line of text.
func appendLines(runs []doctree.TextRun, text string, size float64, page int) []doctree.TextRun {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runs = append(runs, doctree.TextRun{Text: line, FontSize: size, Page: page})
	}
	return runs
}
