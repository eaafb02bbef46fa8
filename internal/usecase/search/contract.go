package search

import (
	"context"

	"github.com/serverscout/serverscout/internal/domain/record"
	"github.com/serverscout/serverscout/internal/usecase/rerank"
)

// Pipeline is the consumer contract for the rerank post-processor.
type Pipeline interface {
	Run(ctx context.Context, results []record.Merged, opts rerank.Options) []record.Merged
}

// Options carries the per-request knobs from the transport layer through
// merging and reranking.
type Options struct {
	// MinSimilarity drops results at merge time and doubles as the legacy
	// rerank threshold alias.
	MinSimilarity float64
	// MinScore is the rerank pipeline's score floor.
	MinScore float64
	// Limit truncates the final ranked list when positive.
	Limit int
	// SortBy and SortOrder select the final ordering (default: score
	// descending).
	SortBy    string
	SortOrder string
}
