// Package record defines the canonical result shapes flowing between
// providers, the merger, and the rerank pipeline.
package record

// Record is a single server record as returned by a provider.
// Similarity is the provider-assigned relevance in [0,1].
type Record struct {
	ID          string
	Title       string
	Description string
	SourceURL   string
	Categories  []string
	Tags        []string
	Similarity  float64
}

// Key returns the canonical dedup identity: the source URL when present,
// otherwise a title-derived key.
func (r Record) Key() string {
	if r.SourceURL != "" {
		return r.SourceURL
	}
	return "title:" + r.Title
}

// Batch is the unit the fan-out runner emits per provider. A failed
// provider yields a batch with an empty result set.
type Batch struct {
	Provider string
	Results  []Record
}

// Merged is a deduplicated record annotated with its surviving provider
// and that provider's priority weight. A zero Score means no rerank stage
// has derived one yet; until then Similarity is the working value.
type Merged struct {
	Record
	Provider string
	Priority int
	Score    float64
}
