package sqlitevec

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain"
	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
	"github.com/serverscout/serverscout/internal/vectorindex"
)

// candidateLimit bounds how many matches one search emits.
const candidateLimit = 50

// Provider searches the relational store by embedding the query and
// ranking rows with cosine similarity.
type Provider struct {
	store    *Store
	embedder domain.Embedder
	logger   *zap.Logger
}

// NewProvider creates a sqlite vector provider.
func NewProvider(store *Store, embedder domain.Embedder, logger *zap.Logger) *Provider {
	return &Provider{store: store, embedder: embedder, logger: logger}
}

// Search implements provider.Provider.
func (p *Provider) Search(ctx context.Context, q query.Query) ([]record.Record, error) {
	if p.embedder == nil {
		return nil, domain.ErrNoEmbedder
	}

	res, err := p.embedder.Embed(ctx, q.Text())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := vectorindex.Normalize(res.Embedding)

	rows, err := p.store.all(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		if len(row.vector) == 0 {
			continue
		}
		sim := vectorindex.Cosine(queryVec, row.vector)
		if sim <= 0 {
			continue
		}
		rec := row.rec
		rec.Similarity = sim
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Similarity > records[j].Similarity
	})
	if len(records) > candidateLimit {
		records = records[:candidateLimit]
	}
	p.logger.Debug("SQLite vector search completed", zap.Int("results", len(records)))
	return records, nil
}
