// Package registry implements the provider contract against a remote
// JSON registry API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
)

// pageSize is how many records one search requests from the registry.
const pageSize = 50

// Config holds registry client settings.
type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// Client is an HTTP search client for one registry.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a registry client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// serverListDTO mirrors the registry search response.
type serverListDTO struct {
	Servers []serverDTO `json:"servers"`
}

type serverDTO struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Homepage    string            `json:"homepage"`
	Repository  repositoryDTO     `json:"repository"`
	Categories  record.StringList `json:"categories"`
	Tags        record.StringList `json:"tags"`
	Score       float64           `json:"score"`
}

type repositoryDTO struct {
	URL string `json:"url"`
}

// Search implements provider.Provider. Registry entries without a
// server-assigned score get a keyword overlap estimate so downstream
// threshold filtering has a value to work with.
func (c *Client) Search(ctx context.Context, q query.Query) ([]record.Record, error) {
	endpoint := c.baseURL + "/v0/servers?search=" + url.QueryEscape(q.Task()) +
		"&limit=" + strconv.Itoa(pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry %s: unexpected status %d", c.name, resp.StatusCode)
	}

	var list serverListDTO
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("registry %s: decode response: %w", c.name, err)
	}

	terms := strings.Fields(strings.ToLower(q.Text()))
	records := make([]record.Record, 0, len(list.Servers))
	for _, s := range list.Servers {
		rec := s.toRecord()
		if rec.Similarity == 0 {
			rec.Similarity = overlapScore(terms, rec)
		}
		records = append(records, rec)
	}
	c.logger.Debug("Registry search completed",
		zap.String("registry", c.name), zap.Int("results", len(records)))
	return records, nil
}

func (s serverDTO) toRecord() record.Record {
	title := s.DisplayName
	if title == "" {
		title = s.Name
	}
	sourceURL := s.Repository.URL
	if sourceURL == "" {
		sourceURL = s.Homepage
	}
	sim := s.Score
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return record.Record{
		ID:          s.ID,
		Title:       title,
		Description: s.Description,
		SourceURL:   sourceURL,
		Categories:  s.Categories,
		Tags:        s.Tags,
		Similarity:  sim,
	}
}

// overlapScore estimates relevance as the fraction of query terms found
// in the record's title or description.
func overlapScore(terms []string, rec record.Record) float64 {
	if len(terms) == 0 {
		return 0
	}
	text := strings.ToLower(rec.Title + " " + rec.Description)
	matched := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
