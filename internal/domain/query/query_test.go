package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/serverscout/serverscout/internal/domain"
)

func TestNew_TrimsTask(t *testing.T) {
	q, err := New("  find a weather server  ", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Task() != "find a weather server" {
		t.Errorf("expected trimmed task, got %q", q.Task())
	}
}

func TestNew_EmptyTask(t *testing.T) {
	for _, task := range []string{"", "   ", "\t\n"} {
		_, err := New(task, nil, nil)
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("task %q: expected ErrEmptyQuery, got %v", task, err)
		}
	}
}

func TestNew_TaskTooLong(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxTaskLength+1), nil, nil)
	if err == nil {
		t.Fatal("expected error for oversized task")
	}
}

func TestNew_CompactsKeywords(t *testing.T) {
	q, err := New("task", []string{" postgres ", "", "  ", "sql"}, []string{"database", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kw := q.Keywords()
	if len(kw) != 2 || kw[0] != "postgres" || kw[1] != "sql" {
		t.Errorf("unexpected keywords: %v", kw)
	}
	caps := q.Capabilities()
	if len(caps) != 1 || caps[0] != "database" {
		t.Errorf("unexpected capabilities: %v", caps)
	}
}

func TestText(t *testing.T) {
	q, err := New("query a database", []string{"postgres", "sql"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.Text(); got != "query a database postgres sql" {
		t.Errorf("unexpected text: %q", got)
	}

	q, err = New("query a database", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.Text(); got != "query a database" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	q, err := New("task", []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kw := q.Keywords()
	kw[0] = "mutated"

	if q.Keywords()[0] != "a" {
		t.Error("keyword mutation leaked into the query")
	}
}
