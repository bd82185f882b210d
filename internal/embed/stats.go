package embed

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CallKind says what an embedding call was for.
type CallKind string

const (
	KindQuery   CallKind = "query"
	KindSection CallKind = "section"
)

type kindKey struct{}

// WithKind tags ctx so embedders can attribute the call in their Stats.
func WithKind(ctx context.Context, kind CallKind) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

// KindOf returns the tag set by WithKind. Untagged calls count as sections.
func KindOf(ctx context.Context) CallKind {
	if k, ok := ctx.Value(kindKey{}).(CallKind); ok {
		return k
	}
	return KindSection
}

type call struct {
	at        time.Time
	kind      CallKind
	latencyMs int64
	chars     int
	failed    bool
}

// Latency aggregates call durations in milliseconds.
type Latency struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StatsSnapshot summarises the calls still inside the window.
type StatsSnapshot struct {
	Calls    int     `json:"calls"`
	Failures int     `json:"failures"`
	Chars    int     `json:"chars"`
	Query    Latency `json:"query"`
	Section  Latency `json:"section"`
}

// Stats keeps recent embedding calls within a rolling window. A nil *Stats
// discards records.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	maxAge time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 256),
		maxAge: maxAge,
	}
}

// Record adds one call of kind that embedded chars bytes of text.
func (s *Stats) Record(kind CallKind, d time.Duration, chars int, err error) {
	if s == nil {
		return
	}
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.calls = append(s.calls, call{
		at:        now,
		kind:      kind,
		latencyMs: ms,
		chars:     chars,
		failed:    err != nil,
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	var snap StatsSnapshot
	var query, section []int64
	for _, c := range s.calls {
		snap.Calls++
		snap.Chars += c.chars
		if c.failed {
			snap.Failures++
		}
		if c.kind == KindQuery {
			query = append(query, c.latencyMs)
		} else {
			section = append(section, c.latencyMs)
		}
	}
	snap.Query = summarise(query)
	snap.Section = summarise(section)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	keep := s.calls[:0]
	for _, c := range s.calls {
		if !c.at.Before(cutoff) {
			keep = append(keep, c)
		}
	}
	s.calls = keep
}

func summarise(values []int64) Latency {
	if len(values) == 0 {
		return Latency{}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	var sum int64
	for _, v := range values {
		sum += v
	}
	return Latency{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + ((hi - lo) * weight)
}
