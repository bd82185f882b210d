// Package rank scores document sections against a persona/task query and
// keeps the most relevant ones.
package rank

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/sectionrank/internal/doctree"
	"github.com/dgallion1/sectionrank/internal/embed"
)

const (
	DefaultTopK        = 5
	DefaultScoreLines  = 5
	DefaultRefineLines = 7
)

// Query is the persona and job-to-be-done a collection is ranked against.
type Query struct {
	Persona string
	Task    string
}

// Text is the string that gets embedded for the query.
func (q Query) Text() string {
	return q.Persona + ": " + q.Task
}

// EmbedQuery embeds the query once. The vector is shared read-only by every
// document ranked under the same collection.
func EmbedQuery(ctx context.Context, e embed.Embedder, q Query) ([]float32, error) {
	vec, err := e.Embed(embed.WithKind(ctx, embed.KindQuery), q.Text())
	if err != nil {
		return nil, &embed.EmbeddingError{Op: "query", Err: err}
	}
	return vec, nil
}

// Ranker scores sections by cosine similarity to a query vector.
type Ranker struct {
	Embedder embed.Embedder

	TopK        int // Sections kept after sorting
	ScoreLines  int // Body lines included in the scored text
	RefineLines int // Body lines included in the refined report text
	Concurrency int // Parallel embed calls per document; 1 is sequential
}

// New returns a Ranker with the default limits.
func New(e embed.Embedder) *Ranker {
	return &Ranker{
		Embedder:    e,
		TopK:        DefaultTopK,
		ScoreLines:  DefaultScoreLines,
		RefineLines: DefaultRefineLines,
		Concurrency: 1,
	}
}

// ScoreText is the title followed by the first ScoreLines body lines.
// Later body lines never influence the score.
func (r *Ranker) ScoreText(s doctree.Section) string {
	return s.Prefix(r.ScoreLines)
}

// RefinedText is the title followed by the first RefineLines body lines.
func (r *Ranker) RefinedText(s doctree.Section) string {
	return s.Prefix(r.RefineLines)
}

// Rank embeds every section, scores it against queryVec and returns the top
// sections by descending score. Ties keep document order. A section whose
// scored text is blank is not embedded and scores 0.
func (r *Ranker) Rank(ctx context.Context, sections []doctree.Section, queryVec []float32) ([]doctree.RankedSection, error) {
	scores, err := r.score(ctx, sections, queryVec)
	if err != nil {
		return nil, err
	}

	ranked := make([]doctree.RankedSection, len(sections))
	for i, s := range sections {
		ranked[i] = doctree.RankedSection{Section: s, Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	topK := r.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

func (r *Ranker) score(ctx context.Context, sections []doctree.Section, queryVec []float32) ([]float64, error) {
	scores := make([]float64, len(sections))
	workers := r.Concurrency
	if workers <= 1 {
		for i, s := range sections {
			sc, err := r.scoreOne(ctx, s, queryVec)
			if err != nil {
				return nil, err
			}
			scores[i] = sc
		}
		return scores, nil
	}

	errs := make([]error, len(sections))
	sem := make(chan struct{}, workers)
	done := make(chan struct{}, len(sections))
	for i, s := range sections {
		sem <- struct{}{}
		go func(i int, s doctree.Section) {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			scores[i], errs[i] = r.scoreOne(ctx, s, queryVec)
		}(i, s)
	}
	for range sections {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}

func (r *Ranker) scoreOne(ctx context.Context, s doctree.Section, queryVec []float32) (float64, error) {
	text := r.ScoreText(s)
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	vec, err := r.Embedder.Embed(embed.WithKind(ctx, embed.KindSection), text)
	if err != nil {
		return 0, &embed.EmbeddingError{Op: "section " + quoteTitle(s.Title), Err: err}
	}
	sc, err := embed.Cosine(queryVec, vec)
	if err != nil {
		return 0, &embed.EmbeddingError{Op: "section " + quoteTitle(s.Title), Err: err}
	}
	return sc, nil
}

// quoteTitle shortens long titles to 60 runes for error messages.
func quoteTitle(t string) string {
	if utf8.RuneCountInString(t) > 60 {
		t = string([]rune(t)[:60]) + "..."
	}
	return `"` + t + `"`
}
