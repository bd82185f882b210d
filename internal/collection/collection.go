// Package collection discovers collection directories and loads their
// persona/task input and document list.
package collection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/sectionrank/internal/parser"
	"github.com/dgallion1/sectionrank/internal/rank"
)

// Layout names the files and folders a collection is made of.
type Layout struct {
	Pattern    string // Glob for collection directories under the root
	InputFile  string // Input JSON inside a collection
	DocsDir    string // Folder holding the documents
	AllFormats bool   // Accept every parser-supported format, not just PDF
}

// DefaultLayout is "Collection */challenge1b_input.json" plus "PDFs/".
func DefaultLayout() Layout {
	return Layout{
		Pattern:   "Collection *",
		InputFile: "challenge1b_input.json",
		DocsDir:   "PDFs",
	}
}

// Collection is one batch unit: a shared query and the documents ranked
// against it.
type Collection struct {
	Name      string
	Dir       string
	Input     Input
	Documents []string // Paths, sorted by file name
}

// Query returns the persona/task query for the collection.
func (c Collection) Query() rank.Query {
	return c.Input.Query()
}

// MissingInputError means a collection lacks its input file or docs folder.
type MissingInputError struct {
	Collection string
	Path       string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("collection %q: missing %s", e.Collection, e.Path)
}

// Scan returns the collection directories under root, sorted by name.
func Scan(root string, layout Layout) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, layout.Pattern))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	var dirs []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Load reads a collection directory. A missing input file or docs folder
// yields a *MissingInputError; an input that fails validation yields an
// *InvalidInputError.
func Load(dir string, layout Layout) (*Collection, error) {
	name := filepath.Base(dir)
	inputPath := filepath.Join(dir, layout.InputFile)
	docsPath := filepath.Join(dir, layout.DocsDir)

	if !exists(inputPath, false) {
		return nil, &MissingInputError{Collection: name, Path: inputPath}
	}
	if !exists(docsPath, true) {
		return nil, &MissingInputError{Collection: name, Path: docsPath}
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	input, err := ReadInput(f)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			invalid.Collection = name
			invalid.Path = inputPath
		}
		return nil, err
	}

	docs, err := listDocuments(docsPath, layout.AllFormats)
	if err != nil {
		return nil, err
	}

	return &Collection{
		Name:      name,
		Dir:       dir,
		Input:     input,
		Documents: docs,
	}, nil
}

func listDocuments(dir string, allFormats bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if allFormats {
			if !parser.IsSupportedExtension(name) {
				continue
			}
		} else if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		docs = append(docs, filepath.Join(dir, name))
	}
	sort.Strings(docs)
	return docs, nil
}

func exists(path string, wantDir bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir() == wantDir
}
