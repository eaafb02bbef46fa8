// Package vectorindex provides the in-memory similarity engine: a
// unit-normalized vector store with cosine scoring, optional keyword
// blending, and category/tag filtering.
package vectorindex

import (
	"sort"
	"strings"
	"sync"

	"github.com/serverscout/serverscout/internal/domain/record"
)

// DefaultMinSimilarity is the score floor applied when Options leaves
// MinSimilarity at zero.
const DefaultMinSimilarity = 0.5

// Keyword overlap weights per matched field.
const (
	titleWeight       = 0.5
	descriptionWeight = 0.3
	categoryWeight    = 0.2
	tagWeight         = 0.2
)

// Blend weights for hybrid vector/text scoring.
const (
	vectorBlendWeight = 0.7
	textBlendWeight   = 0.3
)

// Entry is a stored vector with its payload record.
type Entry struct {
	ID      string
	Vector  []float32
	Payload record.Record
}

// Options controls a similarity search.
type Options struct {
	// MinSimilarity is the score floor. Zero selects DefaultMinSimilarity;
	// a negative value disables the floor.
	MinSimilarity float64
	// Categories and Tags filter candidates before scoring: an entry
	// passes when any filter term is a case-insensitive substring of any
	// of its categories (respectively tags). Both filters together use
	// any-of semantics.
	Categories []string
	Tags       []string
	// TextQuery, when non-empty, blends a keyword overlap score into the
	// cosine similarity.
	TextQuery string
}

// Index is an in-memory vector store. All mutation is serialized behind a
// single mutex; stored vectors are always unit-normalized.
type Index struct {
	mu      sync.RWMutex
	ids     map[string]int
	entries []Entry
}

// New creates an empty index.
func New() *Index {
	return &Index{ids: make(map[string]int)}
}

// Add stores a unit-normalized copy of vector under id, replacing any
// existing entry with the same id. The caller's slice is never mutated.
func (x *Index) Add(id string, vector []float32, payload record.Record) {
	e := Entry{ID: id, Vector: Normalize(vector), Payload: payload}

	x.mu.Lock()
	defer x.mu.Unlock()
	if i, ok := x.ids[id]; ok {
		x.entries[i] = e
		return
	}
	x.ids[id] = len(x.entries)
	x.entries = append(x.entries, e)
}

// Len returns the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Clear empties the store.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ids = make(map[string]int)
	x.entries = nil
}

// Search scores all stored entries against queryVector and returns the
// matches above the similarity floor, sorted descending and truncated to
// limit (limit <= 0 means no truncation). Each returned record carries
// the final blended score in its Similarity field. An empty store and a
// zero query vector are both valid inputs.
func (x *Index) Search(queryVector []float32, limit int, opts Options) []record.Record {
	q := Normalize(queryVector)
	keywords := tokenize(opts.TextQuery)

	minSim := opts.MinSimilarity
	switch {
	case minSim == 0:
		minSim = DefaultMinSimilarity
	case minSim < 0:
		minSim = 0
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	scored := make([]record.Record, 0, len(x.entries))
	for _, e := range x.entries {
		if !matchesFilter(e.Payload, opts.Categories, opts.Tags) {
			continue
		}

		score := Cosine(q, e.Vector)
		if len(keywords) > 0 {
			score = vectorBlendWeight*score + textBlendWeight*keywordScore(keywords, e.Payload)
		}
		if score < minSim {
			continue
		}

		rec := e.Payload
		rec.Similarity = score
		scored = append(scored, rec)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// TextScore computes the keyword overlap score of textQuery against rec.
// Used by providers that score records without vectors available.
func TextScore(textQuery string, rec record.Record) float64 {
	keywords := tokenize(textQuery)
	if len(keywords) == 0 {
		return 0
	}
	return keywordScore(keywords, rec)
}

// keywordScore computes the keyword overlap between query terms and a
// record: 0.5 for a title match, 0.3 for description, 0.2 each for a
// category or tag match, capped at 1 and normalized by keyword count.
func keywordScore(keywords []string, rec record.Record) float64 {
	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)

	var total float64
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			total += titleWeight
		}
		if strings.Contains(desc, kw) {
			total += descriptionWeight
		}
		if containsTerm(rec.Categories, kw) {
			total += categoryWeight
		}
		if containsTerm(rec.Tags, kw) {
			total += tagWeight
		}
	}

	score := total / float64(len(keywords))
	if score > 1 {
		return 1
	}
	return score
}

func matchesFilter(rec record.Record, categories, tags []string) bool {
	if len(categories) == 0 && len(tags) == 0 {
		return true
	}
	for _, c := range categories {
		if containsTerm(rec.Categories, strings.ToLower(c)) {
			return true
		}
	}
	for _, t := range tags {
		if containsTerm(rec.Tags, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// containsTerm reports whether term is a substring of any value,
// case-insensitively. term must already be lowercase.
func containsTerm(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
