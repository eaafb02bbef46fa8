// Package keyword implements the provider contract with a local bleve
// full-text index built over the offline corpus.
package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
)

// candidateLimit bounds how many hits one search requests from bleve.
const candidateLimit = 50

// Source supplies the records to index. The corpus loader satisfies it.
type Source interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// serverDoc is the shape indexed per record.
type serverDoc struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
}

// Provider searches an in-memory full-text index.
type Provider struct {
	source Source
	logger *zap.Logger

	mu      sync.Mutex
	index   bleve.Index
	docs    map[string]record.Record
	indexed bool
}

// New creates a keyword provider over source. The index is built lazily
// on first search.
func New(source Source, logger *zap.Logger) (*Provider, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &Provider{
		source: source,
		logger: logger,
		index:  index,
		docs:   make(map[string]record.Record),
	}, nil
}

// Search implements provider.Provider.
func (p *Provider) Search(ctx context.Context, q query.Query) ([]record.Record, error) {
	if err := p.ensureIndexed(ctx); err != nil {
		return nil, err
	}

	matchQuery := bleve.NewMatchQuery(q.Text())
	req := bleve.NewSearchRequestOptions(matchQuery, candidateLimit, 0, false)

	res, err := p.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	// bleve scores are unbounded; normalize against the best hit so the
	// similarity contract of [0,1] holds.
	maxScore := res.Hits[0].Score
	for _, hit := range res.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	records := make([]record.Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		p.mu.Lock()
		rec, ok := p.docs[hit.ID]
		p.mu.Unlock()
		if !ok {
			continue
		}
		if maxScore > 0 {
			rec.Similarity = hit.Score / maxScore
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Provider) ensureIndexed(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexed {
		return nil
	}

	records, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load keyword source: %w", err)
	}

	batch := p.index.NewBatch()
	for _, rec := range records {
		id := rec.Key()
		p.docs[id] = rec
		doc := serverDoc{
			Title:       rec.Title,
			Description: rec.Description,
			Categories:  rec.Categories,
			Tags:        rec.Tags,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("index record %s: %w", id, err)
		}
	}
	if err := p.index.Batch(batch); err != nil {
		return fmt.Errorf("apply index batch: %w", err)
	}

	p.indexed = true
	p.logger.Debug("Built keyword index", zap.Int("records", len(records)))
	return nil
}

// buildIndexMapping creates the bleve index mapping for server documents.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("description", textField)
	docMapping.AddFieldMappingsAt("categories", textField)
	docMapping.AddFieldMappingsAt("tags", textField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Close releases the index.
func (p *Provider) Close() error {
	if err := p.index.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	return nil
}
