package keyword

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
)

type staticSource struct {
	records []record.Record
	err     error
}

func (s *staticSource) Load(_ context.Context) ([]record.Record, error) {
	return s.records, s.err
}

func corpusFixture() []record.Record {
	return []record.Record{
		{
			Title:       "Postgres Server",
			Description: "Query PostgreSQL databases",
			SourceURL:   "https://example.com/postgres",
			Categories:  []string{"database"},
			Tags:        []string{"sql"},
		},
		{
			Title:       "Weather Server",
			Description: "Weather forecasts and alerts",
			SourceURL:   "https://example.com/weather",
			Categories:  []string{"weather"},
		},
	}
}

func mustQuery(t *testing.T, task string) query.Query {
	t.Helper()
	q, err := query.New(task, nil, nil)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestSearch_FindsMatchingRecords(t *testing.T) {
	p, err := New(&staticSource{records: corpusFixture()}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = p.Close() }()

	records, err := p.Search(context.Background(), mustQuery(t, "postgresql databases"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected at least one hit")
	}
	if records[0].Title != "Postgres Server" {
		t.Errorf("top hit = %q, want Postgres Server", records[0].Title)
	}
	if records[0].Similarity != 1 {
		t.Errorf("best hit similarity = %v, want 1 (normalized)", records[0].Similarity)
	}
	for _, r := range records {
		if r.Similarity < 0 || r.Similarity > 1 {
			t.Errorf("similarity %v outside [0,1]", r.Similarity)
		}
	}
}

func TestSearch_NoMatches(t *testing.T) {
	p, err := New(&staticSource{records: corpusFixture()}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = p.Close() }()

	records, err := p.Search(context.Background(), mustQuery(t, "quantum chromodynamics"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no hits, got %d", len(records))
	}
}

func TestSearch_SourceFailurePropagates(t *testing.T) {
	p, err := New(&staticSource{err: errors.New("corpus unavailable")}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Search(context.Background(), mustQuery(t, "postgres")); err == nil {
		t.Fatal("expected source failure to propagate")
	}
}
