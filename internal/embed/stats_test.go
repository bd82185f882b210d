package embed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(KindSection, time.Duration(ms)*time.Millisecond, 10, nil)
	}

	snap := stats.Snapshot()
	sec := snap.Section
	if sec.Count != 5 || snap.Calls != 5 {
		t.Fatalf("expected 5 section calls, got %+v", snap)
	}
	if sec.MinMs != 100 || sec.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", sec.MinMs, sec.MaxMs)
	}
	if sec.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", sec.AvgMs)
	}
	if sec.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", sec.P50Ms)
	}
	if sec.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", sec.P95Ms)
	}
	if sec.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", sec.P99Ms)
	}
	if snap.Chars != 50 {
		t.Fatalf("expected 50 chars, got %d", snap.Chars)
	}
}

func TestStatsSplitsQueryAndSectionCalls(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(KindQuery, 40*time.Millisecond, 20, nil)
	stats.Record(KindSection, 10*time.Millisecond, 5, nil)
	stats.Record(KindSection, 30*time.Millisecond, 5, errors.New("timeout"))

	snap := stats.Snapshot()
	if snap.Query.Count != 1 || snap.Query.MaxMs != 40 {
		t.Errorf("unexpected query latency %+v", snap.Query)
	}
	if snap.Section.Count != 2 || snap.Section.AvgMs != 20 {
		t.Errorf("unexpected section latency %+v", snap.Section)
	}
	if snap.Calls != 3 || snap.Failures != 1 || snap.Chars != 30 {
		t.Errorf("unexpected totals %+v", snap)
	}
}

func TestKindOf(t *testing.T) {
	ctx := context.Background()
	if got := KindOf(ctx); got != KindSection {
		t.Errorf("untagged context: got %q", got)
	}
	if got := KindOf(WithKind(ctx, KindQuery)); got != KindQuery {
		t.Errorf("tagged context: got %q", got)
	}
}

func TestHashEmbedderRecordsKind(t *testing.T) {
	h := NewHashEmbedder(0)
	ctx := context.Background()
	if _, err := h.Embed(WithKind(ctx, KindQuery), "chef: plan dinner"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Embed(ctx, "Vegetarian mains"); err != nil {
		t.Fatal(err)
	}

	snap := h.Stats.Snapshot()
	if snap.Query.Count != 1 || snap.Section.Count != 1 {
		t.Errorf("expected one call of each kind, got %+v", snap)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(KindSection, 100*time.Millisecond, 1, nil)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected no calls after prune, got %d", snap.Calls)
	}

	stats.Record(KindSection, 200*time.Millisecond, 1, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 || snap.Section.MinMs != 200 {
		t.Fatalf("expected one fresh call of 200ms, got %+v", snap)
	}
}

func TestStatsNilSafe(t *testing.T) {
	var stats *Stats
	stats.Record(KindQuery, time.Millisecond, 1, nil)
	if snap := stats.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected empty snapshot from nil stats, got %+v", snap)
	}
}
