// Package search orchestrates a query across all registered providers:
// concurrent fan-out, failure isolation, deduplication, and reranking.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
	"github.com/serverscout/serverscout/internal/metrics"
	"github.com/serverscout/serverscout/internal/provider"
	"github.com/serverscout/serverscout/internal/usecase/rerank"
)

// Service coordinates the search fan-out and post-processing.
type Service struct {
	providers []provider.Registration
	merger    *Merger
	pipeline  Pipeline
	logger    *zap.Logger
}

// New creates a search service over the registered providers.
func New(providers []provider.Registration, merger *Merger, pipeline Pipeline, logger *zap.Logger) *Service {
	return &Service{
		providers: providers,
		merger:    merger,
		pipeline:  pipeline,
		logger:    logger,
	}
}

// Search runs the full pipeline: fan out to every provider, merge the
// batches, rerank, and return the ordered list. A request always yields a
// (possibly empty) ranked list; individual provider failures are absorbed
// at the fan-out boundary.
func (s *Service) Search(ctx context.Context, q query.Query, opts Options) ([]record.Merged, error) {
	batches := s.fanOut(ctx, q)

	merged := s.merger.Merge(batches, MergeOptions{MinSimilarity: opts.MinSimilarity})

	ranked := s.pipeline.Run(ctx, merged, rerank.Options{
		MinScore:      opts.MinScore,
		MinSimilarity: opts.MinSimilarity,
		Limit:         opts.Limit,
		SortBy:        opts.SortBy,
		SortOrder:     opts.SortOrder,
		Query:         q.Text(),
	})

	s.logger.Debug("Search completed",
		zap.Int("providers", len(s.providers)),
		zap.Int("merged", len(merged)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}

// fanOut invokes every provider concurrently and collects one batch per
// provider, in registration order. Any failure (error, panic, context
// expiry inside the provider) is converted to an empty batch and logged;
// a failing provider never fails the request.
func (s *Service) fanOut(ctx context.Context, q query.Query) []record.Batch {
	batches := make([]record.Batch, len(s.providers))

	var wg sync.WaitGroup
	for i, reg := range s.providers {
		wg.Add(1)
		go func(i int, reg provider.Registration) {
			defer wg.Done()
			batches[i] = record.Batch{
				Provider: reg.Name,
				Results:  s.callProvider(ctx, reg, q),
			}
		}(i, reg)
	}
	wg.Wait()

	return batches
}

func (s *Service) callProvider(ctx context.Context, reg provider.Registration, q query.Query) (results []record.Record) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Provider panicked",
				zap.String("provider", reg.Name), zap.Any("panic", r))
			metrics.ObserveProviderSearch(reg.Name, metrics.StatusError, 0)
			results = nil
		}
	}()

	start := time.Now()
	results, err := reg.Impl.Search(ctx, q)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("Provider failed, substituting empty batch",
			zap.String("provider", reg.Name),
			zap.Duration("duration", duration),
			zap.Error(fmt.Errorf("provider %s: %w", reg.Name, err)),
		)
		metrics.ObserveProviderSearch(reg.Name, metrics.StatusError, duration)
		return nil
	}

	metrics.ObserveProviderSearch(reg.Name, metrics.StatusOK, duration)
	return results
}
