package query

import (
	"fmt"
	"strings"

	"github.com/serverscout/serverscout/internal/domain"
)

// MaxTaskLength is the maximum allowed task description length.
const MaxTaskLength = 4096

// Query is a validated, immutable search query.
type Query struct {
	task         string
	keywords     []string
	capabilities []string
}

// New validates and normalizes a search query.
// The task description is required; keywords and capabilities are optional.
func New(task string, keywords, capabilities []string) (Query, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Query{}, domain.ErrEmptyQuery
	}
	if len(task) > MaxTaskLength {
		return Query{}, fmt.Errorf("task description too long (max %d chars)", MaxTaskLength)
	}

	return Query{
		task:         task,
		keywords:     compact(keywords),
		capabilities: compact(capabilities),
	}, nil
}

// Task returns the free-text task description.
func (q Query) Task() string { return q.task }

// Keywords returns a copy of the optional keyword hints.
func (q Query) Keywords() []string {
	return append([]string(nil), q.keywords...)
}

// Capabilities returns a copy of the optional capability filters.
func (q Query) Capabilities() []string {
	return append([]string(nil), q.capabilities...)
}

// Text returns the task description and keywords joined into a single
// string, the form providers embed and score against.
func (q Query) Text() string {
	if len(q.keywords) == 0 {
		return q.task
	}
	return q.task + " " + strings.Join(q.keywords, " ")
}

// compact copies the slice, dropping empty and whitespace-only entries.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
