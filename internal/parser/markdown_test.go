package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/sectionrank/internal/doctree"
)

func TestMarkdownParser_HeadingSizes(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.
Second line of A.

### Subsection A1

Subsection A1 content.
`
	p := &MarkdownParser{}
	runs, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []doctree.TextRun{
		{Text: "Title", FontSize: headingSize(1)},
		{Text: "Intro text.", FontSize: BodySize},
		{Text: "Section A", FontSize: headingSize(2)},
		{Text: "Section A content.", FontSize: BodySize},
		{Text: "Second line of A.", FontSize: BodySize},
		{Text: "Subsection A1", FontSize: headingSize(3)},
		{Text: "Subsection A1 content.", FontSize: BodySize},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i, w := range want {
		if runs[i] != w {
			t.Errorf("run[%d]: expected %+v, got %+v", i, w, runs[i])
		}
	}
}

func TestMarkdownParser_ListItems(t *testing.T) {
	input := "## Packing\n\n- passport\n- charger\n"
	p := &MarkdownParser{}
	runs, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d: %+v", len(runs), runs)
	}
	if runs[1].Text != "passport" || runs[2].Text != "charger" {
		t.Errorf("unexpected list runs: %+v", runs[1:])
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	p := &MarkdownParser{}
	runs, err := p.Parse(strings.NewReader("Just a paragraph.\n\nAnother one."), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.FontSize != BodySize {
			t.Errorf("expected body size for %q, got %v", r.Text, r.FontSize)
		}
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	runs, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
