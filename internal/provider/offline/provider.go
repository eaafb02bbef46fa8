// Package offline wraps the corpus loader and the similarity engine as a
// provider. It is the only backend with no network dependency: with an
// embedder it does hybrid vector/text search over the corpus, without one
// it degrades to pure keyword scoring.
package offline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/serverscout/serverscout/internal/corpus"
	"github.com/serverscout/serverscout/internal/domain"
	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
	"github.com/serverscout/serverscout/internal/vectorindex"
)

// candidateLimit bounds how many corpus matches one search emits; the
// rerank pipeline applies the caller's limit later.
const candidateLimit = 50

// Config holds offline provider settings.
type Config struct {
	// MinSimilarity is the score floor applied at this provider. Zero
	// selects the engine default.
	MinSimilarity float64
}

// Provider searches the offline corpus.
type Provider struct {
	loader   *corpus.Loader
	index    *vectorindex.Index
	embedder domain.Embedder
	minSim   float64
	logger   *zap.Logger
	group    singleflight.Group
}

// New creates an offline provider. embedder may be nil, in which case
// searches fall back to keyword-overlap scoring.
func New(cfg Config, loader *corpus.Loader, embedder domain.Embedder, logger *zap.Logger) *Provider {
	return &Provider{
		loader:   loader,
		index:    vectorindex.New(),
		embedder: embedder,
		minSim:   cfg.MinSimilarity,
		logger:   logger,
	}
}

// Search implements provider.Provider.
func (p *Provider) Search(ctx context.Context, q query.Query) ([]record.Record, error) {
	if p.embedder == nil {
		return p.searchText(ctx, q)
	}
	return p.searchVector(ctx, q)
}

func (p *Provider) searchVector(ctx context.Context, q query.Query) ([]record.Record, error) {
	if err := p.ensureIndexed(ctx); err != nil {
		return nil, err
	}

	res, err := p.embedder.Embed(ctx, q.Text())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return p.index.Search(res.Embedding, candidateLimit, vectorindex.Options{
		MinSimilarity: p.minSim,
		Categories:    q.Capabilities(),
		Tags:          q.Capabilities(),
		TextQuery:     q.Text(),
	}), nil
}

// searchText scores corpus records by keyword overlap alone. The floor is
// interpreted against the text score directly.
func (p *Provider) searchText(ctx context.Context, q query.Query) ([]record.Record, error) {
	records, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	minSim := p.minSim
	if minSim < 0 {
		minSim = 0
	}

	matched := make([]record.Record, 0, len(records))
	for _, rec := range records {
		score := vectorindex.TextScore(q.Text(), rec)
		if score <= 0 || score < minSim {
			continue
		}
		rec.Similarity = score
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Similarity > matched[j].Similarity
	})
	if len(matched) > candidateLimit {
		matched = matched[:candidateLimit]
	}
	return matched, nil
}

// ensureIndexed populates the vector index from the corpus exactly once.
// Concurrent first callers collapse into a single load; later calls see
// the populated index, including a legitimately empty one.
func (p *Provider) ensureIndexed(ctx context.Context) error {
	if p.index.Len() > 0 {
		return nil
	}
	_, err, _ := p.group.Do("index", func() (any, error) {
		if p.index.Len() > 0 {
			return nil, nil
		}
		entries, err := p.loader.LoadWithEmbeddings(ctx, p.embedder)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			p.index.Add(e.ID, e.Vector, e.Payload)
		}
		p.logger.Debug("Indexed offline corpus", zap.Int("entries", len(entries)))
		return nil, nil
	})
	return err
}
