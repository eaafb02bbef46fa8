package rerank

import (
	"context"
	"sort"

	"github.com/serverscout/serverscout/internal/domain/record"
)

// Reranker is the extension point for an external reranking model.
// Implementations return the results reordered and rescored; on error
// callers fall back to the incoming order.
type Reranker interface {
	Rerank(ctx context.Context, queryText string, results []record.Merged) ([]record.Merged, error)
}

// DeriveScores fills in the working score for results that lack one:
// provider priority (defaulting to 1 when unset) times similarity.
// Results carrying an explicit score keep it.
func DeriveScores(_ context.Context, results []record.Merged, _ Options) []record.Merged {
	for i := range results {
		if results[i].Score != 0 {
			continue
		}
		priority := float64(results[i].Priority)
		if results[i].Priority == 0 {
			priority = 1
		}
		results[i].Score = priority * results[i].Similarity
	}
	return results
}

// FilterThreshold drops results whose score (similarity when no score has
// been derived) falls below the configured floor.
func FilterThreshold(_ context.Context, results []record.Merged, opts Options) []record.Merged {
	threshold := opts.Threshold()
	if threshold <= 0 {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if workingValue(r) >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// RerankStage wraps a specialized reranker as a stage. A nil reranker
// yields a pass-through stage; a failing reranker keeps the incoming
// order.
func RerankStage(reranker Reranker) Stage {
	return func(ctx context.Context, results []record.Merged, opts Options) []record.Merged {
		if reranker == nil || len(results) == 0 {
			return results
		}
		reranked, err := reranker.Rerank(ctx, opts.Query, results)
		if err != nil {
			return results
		}
		return reranked
	}
}

// Sort orders results by the configured key, descending unless SortOrder
// is "asc". The default "score" key falls back to similarity for results
// without a derived score.
func Sort(_ context.Context, results []record.Merged, opts Options) []record.Merged {
	ascending := opts.SortOrder == "asc"

	sort.SliceStable(results, func(i, j int) bool {
		less := sortLess(results[i], results[j], opts.SortBy)
		if ascending {
			return less
		}
		return sortLess(results[j], results[i], opts.SortBy)
	})
	return results
}

// Limit truncates the sequence when a positive limit is configured.
func Limit(_ context.Context, results []record.Merged, opts Options) []record.Merged {
	if opts.Limit > 0 && len(results) > opts.Limit {
		return results[:opts.Limit]
	}
	return results
}

func sortLess(a, b record.Merged, key string) bool {
	switch key {
	case "similarity":
		return a.Similarity < b.Similarity
	case "priority":
		return a.Priority < b.Priority
	case "title":
		return a.Title < b.Title
	default: // score
		return workingValue(a) < workingValue(b)
	}
}

// workingValue is the value threshold filtering and score sorting operate
// on: the derived score when present, similarity otherwise.
func workingValue(r record.Merged) float64 {
	if r.Score != 0 {
		return r.Score
	}
	return r.Similarity
}
