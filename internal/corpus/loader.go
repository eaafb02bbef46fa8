// Package corpus loads the bundled offline server corpus. The corpus is
// the only backend guaranteed to work with zero network dependency, so
// the loader tolerates every absence: a missing file at every candidate
// path yields an empty corpus, never an error. Only malformed JSON in a
// file that does exist is a hard failure, since that is a packaging
// defect rather than an expected condition.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/serverscout/serverscout/internal/domain"
	"github.com/serverscout/serverscout/internal/domain/record"
	"github.com/serverscout/serverscout/internal/vectorindex"
)

// DefaultFile is the corpus location relative to the working directory
// and to each probed ancestor directory.
const DefaultFile = "data/servers.json"

// ancestorProbes bounds how far up from the working directory the loader
// looks for the corpus file.
const ancestorProbes = 3

// Config holds loader settings.
type Config struct {
	// Path overrides corpus resolution entirely when set.
	Path string
	// TTL is the freshness window for the cached corpus. Zero caches for
	// the process lifetime.
	TTL time.Duration
}

// Loader resolves, parses, and caches the offline corpus.
type Loader struct {
	logger *zap.Logger
	ttl    time.Duration
	group  singleflight.Group

	mu       sync.RWMutex
	path     string
	cached   []record.Record
	loaded   bool
	loadedAt time.Time
}

// NewLoader creates a corpus loader.
func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	return &Loader{
		logger: logger,
		ttl:    cfg.TTL,
		path:   cfg.Path,
	}
}

// SetPath overrides the corpus path and invalidates the cache.
func (l *Loader) SetPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
	l.cached = nil
	l.loaded = false
}

// Invalidate drops the cached corpus so the next Load re-reads the file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.loaded = false
}

// Resolvable reports whether any candidate path currently exists.
func (l *Loader) Resolvable() bool {
	_, ok := l.resolve()
	return ok
}

// Load returns the corpus records, reading and caching them on first
// access. Concurrent first access is collapsed into a single read; a
// cached empty corpus is a valid state.
func (l *Loader) Load(ctx context.Context) ([]record.Record, error) {
	l.mu.RLock()
	if l.loaded && (l.ttl <= 0 || time.Since(l.loadedAt) < l.ttl) {
		cached := l.cached
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do("load", func() (any, error) {
		records, err := l.read(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = records
		l.loaded = true
		l.loadedAt = time.Now()
		l.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]record.Record), nil
}

// LoadWithEmbeddings loads the corpus and computes a normalized embedding
// per record from its composite text. A record whose embedding fails is
// logged and skipped; a single bad record never aborts the batch.
func (l *Loader) LoadWithEmbeddings(ctx context.Context, embedder domain.Embedder) ([]vectorindex.Entry, error) {
	if embedder == nil {
		return nil, domain.ErrNoEmbedder
	}

	records, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]vectorindex.Entry, 0, len(records))
	for _, rec := range records {
		res, err := embedder.Embed(ctx, compositeText(rec))
		if err != nil {
			l.logger.Warn("Skipping corpus record: embedding failed",
				zap.String("title", rec.Title), zap.Error(err))
			continue
		}
		rec.ID = recordID(rec)
		entries = append(entries, vectorindex.Entry{
			ID:      rec.ID,
			Vector:  vectorindex.Normalize(res.Embedding),
			Payload: rec,
		})
	}
	return entries, nil
}

// read resolves the corpus file and parses it. Missing everywhere is an
// empty corpus; existing but malformed is a hard error.
func (l *Loader) read(_ context.Context) ([]record.Record, error) {
	path, ok := l.resolve()
	if !ok {
		l.logger.Warn("No corpus file found at any candidate path",
			zap.Strings("candidates", l.candidatePaths()))
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var dtos []serverDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w: %w", path, domain.ErrCorpusMalformed, err)
	}

	records := make([]record.Record, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, dto.toRecord())
	}
	l.logger.Info("Loaded offline corpus",
		zap.String("path", path), zap.Int("records", len(records)))
	return records, nil
}

// resolve returns the first existing candidate path.
func (l *Loader) resolve() (string, bool) {
	for _, p := range l.candidatePaths() {
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// candidatePaths lists corpus locations in resolution order: the explicit
// override, the default working-directory path, the packaged path next to
// the source tree, then a few ancestor-directory probes.
func (l *Loader) candidatePaths() []string {
	l.mu.RLock()
	explicit := l.path
	l.mu.RUnlock()

	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, DefaultFile)

	if dir, ok := executableDir(); ok {
		paths = append(paths, filepath.Join(dir, DefaultFile))
	}

	up := ".."
	for i := 0; i < ancestorProbes; i++ {
		paths = append(paths, filepath.Join(up, DefaultFile))
		up = filepath.Join(up, "..")
	}
	return paths
}

// executableDir locates the directory the binary ships in, where a
// packaged corpus sits next to the executable.
func executableDir() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	return filepath.Dir(exe), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// compositeText builds the string a record is embedded from.
func compositeText(rec record.Record) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{
		rec.Title,
		rec.Description,
		strings.Join(rec.Categories, " "),
		strings.Join(rec.Tags, " "),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// recordID derives a stable id from the source locator, falling back to
// the title for records without one.
func recordID(rec record.Record) string {
	if rec.SourceURL != "" {
		return rec.SourceURL
	}
	return "fallback-" + rec.Title
}
