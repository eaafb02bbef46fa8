// Package rerank post-processes merged results through an ordered list of
// pure stages. Each stage takes and returns the working result sequence;
// removing any stage never breaks its neighbors.
package rerank

import (
	"context"

	"github.com/serverscout/serverscout/internal/domain/record"
)

// Options controls the rerank pipeline for one request.
type Options struct {
	// MinScore is the threshold the filter stage applies. MinSimilarity
	// is its legacy alias, consulted only when MinScore is zero.
	MinScore      float64
	MinSimilarity float64
	// Limit truncates the final sequence when positive.
	Limit int
	// SortBy selects the sort key: "score" (default), "similarity",
	// "priority", or "title".
	SortBy string
	// SortOrder is "desc" (default) or "asc".
	SortOrder string
	// Query carries the original query text for specialized rerankers.
	Query string
}

// Threshold returns the effective score floor.
func (o Options) Threshold() float64 {
	if o.MinScore > 0 {
		return o.MinScore
	}
	return o.MinSimilarity
}

// Stage transforms the working result sequence. Stages mutate only the
// sequence they are handed, never external state.
type Stage func(ctx context.Context, results []record.Merged, opts Options) []record.Merged

// Pipeline is an ordered chain of stages applied by sequential reduction.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline from the given stages, applied in order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Default builds the standard chain: score derivation, threshold
// filtering, specialized reranking (pass-through when reranker is nil),
// sorting, and limiting.
func Default(reranker Reranker) *Pipeline {
	return New(
		DeriveScores,
		FilterThreshold,
		RerankStage(reranker),
		Sort,
		Limit,
	)
}

// Run applies every stage in order and returns the final sequence.
func (p *Pipeline) Run(ctx context.Context, results []record.Merged, opts Options) []record.Merged {
	for _, stage := range p.stages {
		results = stage(ctx, results, opts)
	}
	return results
}
