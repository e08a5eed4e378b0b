// internal/app/app.go
package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roostergrin/image-picker/internal/cache"
	"github.com/roostergrin/image-picker/internal/config"
	"github.com/roostergrin/image-picker/internal/health"
	"github.com/roostergrin/image-picker/internal/logging"
	"github.com/roostergrin/image-picker/internal/metrics"
	"github.com/roostergrin/image-picker/internal/picker"
	"github.com/roostergrin/image-picker/internal/router"
	"github.com/roostergrin/image-picker/internal/server"
	"github.com/roostergrin/image-picker/internal/stock"
)

// Run executes the image-picker startup sequence:
//
//  1. Bootstrap logger
//  2. Load config
//  3. Build final logger
//  4. Register metrics
//  5. Build the stock backend client and the search cache
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler and serve until shutdown
func Run(ctx context.Context) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return err
	}
	bootstrap.Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("log_level", cfg.LogLevel),
	)

	logger := logging.MustBuildLogger(cfg.LogLevel, cfg.Env)
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", "image-picker"))

	metrics.RegisterDefault(logger)

	stockClient, err := stock.NewClient(stock.Config{
		BaseURL:    cfg.Backend.BaseURL,
		SearchPath: cfg.Backend.SearchPath,
		APIKey:     cfg.Backend.APIKey,
		Timeout:    cfg.Backend.Timeout,
	})
	if err != nil {
		logger.Error("stock client setup failed", zap.Error(err))
		return err
	}

	searchCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("cache setup failed", zap.Error(err))
		return err
	}
	if searchCache != nil {
		defer searchCache.Close()
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler := buildHandler(cfg, stockClient, searchCache, logger)

	if err := server.ListenAndServeWithContext(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// buildCache returns the configured search cache, or nil when caching is
// disabled (cache_ttl of 0).
func buildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.Cache.CacheTTL <= 0 {
		logger.Info("search caching disabled")
		return nil, nil
	}

	if cfg.Cache.RedisAddr != "" {
		c, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("redis search cache connected", zap.String("addr", cfg.Cache.RedisAddr))
		return c, nil
	}

	logger.Info("using in-memory search cache", zap.Duration("ttl", cfg.Cache.CacheTTL))
	return cache.NewMemory(cfg.Cache.CacheTTL), nil
}

func buildHandler(cfg *config.Config, stockClient *stock.Client, searchCache cache.Cache, logger *zap.Logger) http.Handler {
	r := router.New(cfg, logger)

	search := picker.NewHandler(stockClient, searchCache, cfg.Cache.CacheTTL, logger)
	r.Route("/api/images", func(r chi.Router) {
		r.Get("/search", search.Search)
	})

	checks := map[string]health.Check{
		"backend": stockClient.Ping,
	}
	if pinger, ok := searchCache.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = pinger.Ping
	}
	r.Method(http.MethodGet, "/healthz", health.Handler(checks))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
