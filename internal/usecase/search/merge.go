package search

import (
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/record"
)

// MergeOptions controls deduplication.
type MergeOptions struct {
	// MinSimilarity, when positive, drops results below it at merge time.
	// This is the legacy filtering path; the rerank pipeline applies the
	// stricter score threshold later.
	MinSimilarity float64
}

// Merger collapses provider batches into one deduplicated set.
type Merger struct {
	priorities map[string]int
	logger     *zap.Logger
}

// NewMerger creates a merger with the provider priority table. Providers
// absent from the table weigh 0.
func NewMerger(priorities map[string]int, logger *zap.Logger) *Merger {
	return &Merger{priorities: priorities, logger: logger}
}

// Merge deduplicates batches by canonical record key. On collision the
// candidate with strictly higher similarity survives; at equal similarity
// the higher provider priority wins. Output preserves first-seen order of
// keys, so downstream ordering depends only on scores.
func (m *Merger) Merge(batches []record.Batch, opts MergeOptions) []record.Merged {
	byKey := make(map[string]int)
	merged := make([]record.Merged, 0)
	collisions := 0

	for _, batch := range batches {
		priority := m.priorities[batch.Provider]
		for _, rec := range batch.Results {
			if opts.MinSimilarity > 0 && rec.Similarity < opts.MinSimilarity {
				continue
			}

			candidate := record.Merged{
				Record:   rec,
				Provider: batch.Provider,
				Priority: priority,
			}

			key := rec.Key()
			i, seen := byKey[key]
			if !seen {
				byKey[key] = len(merged)
				merged = append(merged, candidate)
				continue
			}

			collisions++
			if wins(candidate, merged[i]) {
				merged[i] = candidate
			}
		}
	}

	if collisions > 0 {
		m.logger.Debug("Merged duplicate results across providers",
			zap.Int("collisions", collisions), zap.Int("unique", len(merged)))
	}
	return merged
}

// wins reports whether candidate beats incumbent: strictly higher
// similarity first, then higher provider priority on ties.
func wins(candidate, incumbent record.Merged) bool {
	if candidate.Similarity != incumbent.Similarity {
		return candidate.Similarity > incumbent.Similarity
	}
	return candidate.Priority > incumbent.Priority
}
