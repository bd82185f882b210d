package sections

import "github.com/dgallion1/sectionrank/internal/doctree"

// Build segments classified runs into a flat list of sections.
//
// Every H1 or H2 run opens a new section titled with its text. All other
// runs are appended to the open section's body; runs seen before the first
// heading are dropped. The section page is the page of its heading run even
// when body lines continue onto later pages.
func Build(runs []doctree.ClassifiedRun) []doctree.Section {
	var out []doctree.Section
	var current *doctree.Section

	for _, r := range runs {
		if r.Level.IsSectionBoundary() {
			if current != nil {
				out = append(out, *current)
			}
			current = &doctree.Section{
				Title: r.Text,
				Page:  r.Page,
				Body:  []string{},
			}
			continue
		}
		if current != nil {
			current.Body = append(current.Body, r.Text)
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// FromRuns classifies runs and builds sections in one step.
func FromRuns(runs []doctree.TextRun) []doctree.Section {
	return Build(Classify(runs))
}
