// Package chi exposes the search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain"
	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
	healthuc "github.com/serverscout/serverscout/internal/usecase/health"
	searchuc "github.com/serverscout/serverscout/internal/usecase/search"
	"github.com/serverscout/serverscout/internal/version"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeRateLimited      = "rate_limited"
	codeUpstreamError    = "embedding_provider_error"
	codeInternalError    = "internal_error"
)

// Searcher is the consumer contract for the search use case.
type Searcher interface {
	Search(ctx context.Context, q query.Query, opts searchuc.Options) ([]record.Merged, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP handlers.
type Server struct {
	search         Searcher
	health         *healthuc.Service
	defaults       searchuc.Options
	requestTimeout time.Duration
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. defaults fills request fields the
// client leaves at zero.
func NewServer(
	search Searcher,
	health *healthuc.Service,
	defaults searchuc.Options,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:         search,
		health:         health,
		defaults:       defaults,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Routes mounts the handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.SearchServers)
	r.Get("/health", s.HealthCheck)
	r.Get("/version", s.Version)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// searchRequest is the POST /v1/search body.
type searchRequest struct {
	Task          string   `json:"task"`
	Keywords      []string `json:"keywords,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	MinSimilarity float64  `json:"min_similarity,omitempty"`
	MinScore      float64  `json:"min_score,omitempty"`
	SortBy        string   `json:"sort_by,omitempty"`
	SortOrder     string   `json:"sort_order,omitempty"`
}

type searchResultItem struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Similarity  float64  `json:"similarity"`
	Score       float64  `json:"score"`
	Provider    string   `json:"provider"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Count   int                `json:"count"`
}

// SearchServers handles POST /v1/search.
func (s *Server) SearchServers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Task, req.Keywords, req.Capabilities)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	opts := searchuc.Options{
		MinSimilarity: req.MinSimilarity,
		MinScore:      req.MinScore,
		Limit:         req.Limit,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
	}
	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	if opts.MinSimilarity == 0 {
		opts.MinSimilarity = s.defaults.MinSimilarity
	}
	if opts.MinScore == 0 {
		opts.MinScore = s.defaults.MinScore
	}

	results, err := s.search.Search(ctx, q, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i, res := range results {
		items[i] = resultToItem(res)
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: items, Count: len(items)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	// Degraded still serves search from the offline corpus, so health
	// reports 200 with per-component detail.
	writeJSON(w, http.StatusOK, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func resultToItem(res record.Merged) searchResultItem {
	return searchResultItem{
		ID:          res.ID,
		Title:       res.Title,
		Description: res.Description,
		URL:         res.SourceURL,
		Categories:  res.Categories,
		Tags:        res.Tags,
		Similarity:  res.Similarity,
		Score:       res.Score,
		Provider:    res.Provider,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrCorpusMalformed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
