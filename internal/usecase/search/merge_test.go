package search

import (
	"testing"

	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/record"
)

func TestMergeCollisionKeepsHigherSimilarity(t *testing.T) {
	m := NewMerger(map[string]int{"registry": 10, "offline": 1}, zap.NewNop())

	batches := []record.Batch{
		{
			Provider: "offline",
			Results: []record.Record{
				{Title: "Server A", SourceURL: "https://a.example", Similarity: 0.9},
			},
		},
		{
			Provider: "registry",
			Results: []record.Record{
				{Title: "Server A", SourceURL: "https://a.example", Similarity: 0.95},
				{Title: "Server B", SourceURL: "https://b.example", Similarity: 0.8},
			},
		},
	}

	merged := m.Merge(batches, MergeOptions{})
	if len(merged) != 2 {
		t.Fatalf("expected 2 unique results, got %d", len(merged))
	}

	a := merged[0]
	if a.SourceURL != "https://a.example" {
		t.Fatalf("expected first-seen order to keep A first, got %q", a.SourceURL)
	}
	if a.Similarity != 0.95 {
		t.Errorf("expected collision winner similarity 0.95, got %v", a.Similarity)
	}
	if a.Provider != "registry" {
		t.Errorf("expected winning provider registry, got %q", a.Provider)
	}
	if merged[1].SourceURL != "https://b.example" {
		t.Errorf("expected B second, got %q", merged[1].SourceURL)
	}
}

func TestMergeTieBreaksByPriority(t *testing.T) {
	m := NewMerger(map[string]int{"registry": 10, "offline": 1}, zap.NewNop())

	rec := record.Record{Title: "Server A", SourceURL: "https://a.example", Similarity: 0.7}
	low := record.Batch{Provider: "offline", Results: []record.Record{rec}}
	high := record.Batch{Provider: "registry", Results: []record.Record{rec}}

	for name, batches := range map[string][]record.Batch{
		"low first":  {low, high},
		"high first": {high, low},
	} {
		merged := m.Merge(batches, MergeOptions{})
		if len(merged) != 1 {
			t.Fatalf("%s: expected 1 result, got %d", name, len(merged))
		}
		if merged[0].Provider != "registry" {
			t.Errorf("%s: expected priority tie-break to pick registry, got %q", name, merged[0].Provider)
		}
		if merged[0].Priority != 10 {
			t.Errorf("%s: expected priority 10, got %d", name, merged[0].Priority)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := NewMerger(nil, zap.NewNop())

	batches := []record.Batch{
		{
			Provider: "offline",
			Results: []record.Record{
				{Title: "Server A", SourceURL: "https://a.example", Similarity: 0.9},
				{Title: "Server B", SourceURL: "https://b.example", Similarity: 0.8},
			},
		},
	}

	first := m.Merge(batches, MergeOptions{})

	rebatched := []record.Batch{{Provider: "offline"}}
	for _, res := range first {
		rebatched[0].Results = append(rebatched[0].Results, res.Record)
	}
	second := m.Merge(rebatched, MergeOptions{})

	if len(second) != len(first) {
		t.Fatalf("expected merge to be idempotent, %d != %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Key() != first[i].Key() || second[i].Similarity != first[i].Similarity {
			t.Errorf("result %d changed across merges: %+v != %+v", i, second[i].Record, first[i].Record)
		}
	}
}

func TestMergeFallsBackToTitleKey(t *testing.T) {
	m := NewMerger(nil, zap.NewNop())

	batches := []record.Batch{
		{Provider: "a", Results: []record.Record{{Title: "No URL Server", Similarity: 0.5}}},
		{Provider: "b", Results: []record.Record{{Title: "No URL Server", Similarity: 0.6}}},
	}

	merged := m.Merge(batches, MergeOptions{})
	if len(merged) != 1 {
		t.Fatalf("expected title-keyed dedup, got %d results", len(merged))
	}
	if merged[0].Similarity != 0.6 {
		t.Errorf("expected winner similarity 0.6, got %v", merged[0].Similarity)
	}
}

func TestMergeMinSimilarityFilter(t *testing.T) {
	m := NewMerger(nil, zap.NewNop())

	batches := []record.Batch{
		{
			Provider: "offline",
			Results: []record.Record{
				{Title: "Keep", SourceURL: "https://keep.example", Similarity: 0.8},
				{Title: "Drop", SourceURL: "https://drop.example", Similarity: 0.2},
			},
		},
	}

	merged := m.Merge(batches, MergeOptions{MinSimilarity: 0.5})
	if len(merged) != 1 {
		t.Fatalf("expected 1 result above floor, got %d", len(merged))
	}
	if merged[0].Title != "Keep" {
		t.Errorf("expected Keep to survive, got %q", merged[0].Title)
	}
}

func TestMergeEmptyBatches(t *testing.T) {
	m := NewMerger(nil, zap.NewNop())

	merged := m.Merge(nil, MergeOptions{})
	if len(merged) != 0 {
		t.Fatalf("expected empty merge, got %d", len(merged))
	}

	merged = m.Merge([]record.Batch{{Provider: "offline"}}, MergeOptions{})
	if len(merged) != 0 {
		t.Fatalf("expected empty merge from empty batch, got %d", len(merged))
	}
}
