package domain

import "errors"

var (
	// ErrEmptyQuery signals a search query without a task description.
	ErrEmptyQuery = errors.New("query is required")
	// ErrCorpusMalformed signals unparseable corpus data at a path that exists.
	ErrCorpusMalformed = errors.New("corpus data malformed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoEmbedder signals a vector operation requested without an embedder configured.
	ErrNoEmbedder = errors.New("no embedder configured")
)
