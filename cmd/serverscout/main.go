package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/config"
	"github.com/serverscout/serverscout/internal/corpus"
	"github.com/serverscout/serverscout/internal/db"
	dbRedis "github.com/serverscout/serverscout/internal/db/redis"
	"github.com/serverscout/serverscout/internal/domain"
	logpkg "github.com/serverscout/serverscout/internal/logger"
	"github.com/serverscout/serverscout/internal/metrics"
	"github.com/serverscout/serverscout/internal/provider"
	"github.com/serverscout/serverscout/internal/provider/keyword"
	"github.com/serverscout/serverscout/internal/provider/offline"
	"github.com/serverscout/serverscout/internal/provider/registry"
	"github.com/serverscout/serverscout/internal/provider/sqlitevec"
	"github.com/serverscout/serverscout/internal/repository/embcache"
	chiTransport "github.com/serverscout/serverscout/internal/transport/chi"
	mcpTransport "github.com/serverscout/serverscout/internal/transport/mcp"
	openaiEmb "github.com/serverscout/serverscout/internal/transport/openai"
	healthuc "github.com/serverscout/serverscout/internal/usecase/health"
	"github.com/serverscout/serverscout/internal/usecase/rerank"
	searchuc "github.com/serverscout/serverscout/internal/usecase/search"
	"github.com/serverscout/serverscout/internal/version"
)

func main() {
	transport := flag.String("transport", "http", "transport to serve: http or mcp")
	envFlag := flag.String("env", "", "environment config to load (overrides ENV)")
	flag.Parse()

	env := config.GetEnv()
	if *envFlag != "" {
		env = *envFlag
	}

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting serverscout",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("transport", *transport),
	)

	metrics.RegisterProviderMetrics()
	metrics.RegisterEmbeddingMetrics()

	ctx := context.Background()

	// Cache store (optional)
	var store db.Store
	if cfg.Cache.Enabled {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer redisStore.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := redisStore.WaitForReady(ctx, readiness); err != nil {
			// Cache is an optimization; search degrades without it.
			logger.Warn("Cache not ready, continuing without it", zap.Error(err))
		} else {
			store = redisStore
			logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}
	}

	// Embedder chain: OpenAI -> Cached
	var embedder domain.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled() {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			User:       cfg.Embedding.User,
			Logger:     logger,
		})
		embedder = base
		embeddingChecker = base

		if store != nil {
			ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
			embedder = embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
		}
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.Bool("cached", store != nil),
		)
	} else {
		logger.Warn("No embedding provider configured, vector search runs text-only")
	}

	// Offline corpus loader, shared by the offline and keyword providers.
	loader := corpus.NewLoader(corpus.Config{
		Path: cfg.Offline.FallbackDataPath,
		TTL:  time.Duration(cfg.Offline.RefreshSec) * time.Second,
	}, logger)

	providers := buildProviders(cfg, loader, embedder, logger)
	if len(providers) == 0 {
		logger.Fatal("No search providers configured")
	}

	merger := searchuc.NewMerger(cfg.Rerank.ProviderPriorities, logger)
	searchSvc := searchuc.New(providers, merger, rerank.Default(nil), logger)

	// Avoid wrapping a typed nil pointer into a non-nil interface.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, embeddingChecker, loader)

	switch *transport {
	case "mcp":
		serveMCP(ctx, searchSvc, healthSvc, logger)
	case "http":
		serveHTTP(cfg, searchSvc, healthSvc, logger)
	default:
		logger.Fatal("Unknown transport", zap.String("transport", *transport))
	}
}

// buildProviders assembles the fan-out set in registration order:
// remote registries first, local indexes, and the offline corpus last.
func buildProviders(
	cfg config.Config,
	loader *corpus.Loader,
	embedder domain.Embedder,
	logger *zap.Logger,
) []provider.Registration {
	var providers []provider.Registration

	for _, rc := range cfg.Registries {
		client := registry.NewClient(registry.Config{
			Name:    rc.Name,
			BaseURL: rc.BaseURL,
			Timeout: time.Duration(rc.TimeoutSec) * time.Second,
		}, logger)
		providers = append(providers, provider.Registration{Name: rc.Name, Impl: client})
		logger.Info("Registered registry provider",
			zap.String("name", rc.Name), zap.String("base_url", rc.BaseURL))
	}

	if cfg.Providers.Keyword.Enabled {
		kw, err := keyword.New(loader, logger)
		if err != nil {
			logger.Fatal("Failed to create keyword provider", zap.Error(err))
		}
		providers = append(providers, provider.Registration{Name: "keyword", Impl: kw})
		logger.Info("Registered keyword provider")
	}

	if cfg.Providers.SQLite.Enabled {
		if embedder == nil {
			logger.Warn("Skipping sqlite provider: no embedding provider configured")
		} else {
			sqlStore, err := sqlitevec.Open(cfg.Providers.SQLite.Path)
			if err != nil {
				logger.Fatal("Failed to open sqlite store", zap.Error(err))
			}
			prov := sqlitevec.NewProvider(sqlStore, embedder, logger)
			providers = append(providers, provider.Registration{Name: "sqlite", Impl: prov})
			logger.Info("Registered sqlite provider", zap.String("path", cfg.Providers.SQLite.Path))
		}
	}

	if cfg.Offline.IsEnabled() {
		prov := offline.New(offline.Config{
			MinSimilarity: cfg.Offline.MinSimilarity,
		}, loader, embedder, logger)
		providers = append(providers, provider.Registration{Name: "offline", Impl: prov})
		logger.Info("Registered offline provider",
			zap.String("data_path", cfg.Offline.FallbackDataPath))
	}

	return providers
}

func serveMCP(ctx context.Context, search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) {
	srv := mcpTransport.NewServer(search, health, logger)
	logger.Info("Serving MCP over stdio")
	if err := srv.Serve(ctx); err != nil {
		logger.Fatal("MCP server error", zap.Error(err))
	}
}

func serveHTTP(cfg config.Config, search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) {
	metrics.RegisterHTTPMetrics()

	server := chiTransport.NewServer(search, health, searchuc.Options{
		Limit:         cfg.Search.Limit,
		MinSimilarity: cfg.Search.MinSimilarity,
		MinScore:      cfg.Search.MinScore,
	}, time.Duration(cfg.HTTP.RequestTimeoutSec)*time.Second, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
