package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head>
<body>
<nav>skip me</nav>
<h1>Cities of the South</h1>
<p>Nice is on the coast.</p>
<h2>Where to eat</h2>
<ul><li>Market stalls</li><li>Bistros</li></ul>
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	runs, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantText := []string{"Cities of the South", "Nice is on the coast.", "Where to eat", "Market stalls", "Bistros"}
	if len(runs) != len(wantText) {
		t.Fatalf("expected %d runs, got %d: %+v", len(wantText), len(runs), runs)
	}
	for i, w := range wantText {
		if runs[i].Text != w {
			t.Errorf("run[%d]: expected %q, got %q", i, w, runs[i].Text)
		}
	}
	if runs[0].FontSize != headingSize(1) || runs[2].FontSize != headingSize(2) {
		t.Errorf("expected heading sizes, got %v and %v", runs[0].FontSize, runs[2].FontSize)
	}
	if runs[1].FontSize != BodySize {
		t.Errorf("expected body size, got %v", runs[1].FontSize)
	}
}

func TestHTMLParser_LineBreaksSplitRuns(t *testing.T) {
	p := &HTMLParser{}
	runs, err := p.Parse(strings.NewReader("<p>one<br>two</p>"), "br.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}
