package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"
	"unicode"
)

// DefaultHashDim matches the width of the small sentence-embedding models
// this embedder stands in for.
const DefaultHashDim = 384

// HashEmbedder is a deterministic offline embedder. It hashes word features
// into a fixed number of signed buckets and L2-normalises the result, so
// cosine similarity approximates weighted word overlap.
type HashEmbedder struct {
	Dim   int
	Stats *Stats
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDim
	}
	return &HashEmbedder{Dim: dim, Stats: NewStats(time.Hour)}
}

// Embed never fails; empty or stop-word-only text yields the zero vector.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		h.Stats.Record(KindOf(ctx), time.Since(start), len(text), nil)
	}()

	vec := make([]float32, h.Dim)
	for _, tok := range Tokenize(text) {
		hs := fnv.New64a()
		hs.Write([]byte(tok))
		sum := hs.Sum64()
		idx := int(sum % uint64(h.Dim))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "into": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "with": true, "your": true, "you": true,
}

// Tokenize lower-cases text, splits it on anything that is not a letter or
// digit, drops stop words and folds simple plurals.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		out = append(out, foldPlural(f))
	}
	return out
}

func foldPlural(w string) string {
	if len(w) <= 3 || !strings.HasSuffix(w, "s") || strings.HasSuffix(w, "ss") {
		return w
	}
	if strings.HasSuffix(w, "ies") && len(w) > 4 {
		return strings.TrimSuffix(w, "ies") + "y"
	}
	return strings.TrimSuffix(w, "s")
}
