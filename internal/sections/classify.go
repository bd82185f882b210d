package sections

import (
	"math"
	"sort"

	"github.com/dgallion1/sectionrank/internal/doctree"
)

// RoundSize rounds a font size to one decimal digit. Sizes are always
// compared at this precision so measurement noise does not add levels.
func RoundSize(size float64) float64 {
	return math.Round(size*10) / 10
}

// LevelMap ranks the distinct font sizes of a document and returns the
// heading level for each (rounded) size.
//
// Sizes are ordered by how often they occur, most frequent first, with the
// larger size winning a tie. The size at position i gets level i+1. This is
// a frequency heuristic: the most common size is H1 even when it is not the
// visually largest.
func LevelMap(runs []doctree.TextRun) map[float64]doctree.Level {
	counts := make(map[float64]int)
	for _, r := range runs {
		counts[RoundSize(r.FontSize)]++
	}

	sizes := make([]float64, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		ci, cj := counts[sizes[i]], counts[sizes[j]]
		if ci != cj {
			return ci > cj
		}
		return sizes[i] > sizes[j]
	})

	levels := make(map[float64]doctree.Level, len(sizes))
	for i, size := range sizes {
		levels[size] = doctree.Level(i + 1)
	}
	return levels
}

// Classify attaches a heading level to every run, preserving order.
func Classify(runs []doctree.TextRun) []doctree.ClassifiedRun {
	if len(runs) == 0 {
		return nil
	}
	levels := LevelMap(runs)
	out := make([]doctree.ClassifiedRun, len(runs))
	for i, r := range runs {
		out[i] = doctree.ClassifiedRun{
			TextRun: r,
			Level:   levels[RoundSize(r.FontSize)],
		}
	}
	return out
}
