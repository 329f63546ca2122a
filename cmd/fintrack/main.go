package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", cfg.DataBackend, err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	storeOpts := []store.Option{store.WithLogger(logger)}
	if res.Publisher != nil {
		storeOpts = append(storeOpts, store.WithPublisher(res.Publisher))
	}
	st, err := store.Open(ctx, res.Persister, storeOpts...)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	catalog := core.DefaultCatalog()
	dashCache := cache.NewLRUCache[analytics.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashCache)

	srv := apphttp.NewServer(":"+cfg.Port,
		services.NewTransactionService(st, catalog),
		services.NewDashboardService(st, catalog, dashCache, cfg.ChartMonths),
		apphttp.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldCount, st.Len(),
			log.FieldRevision, st.Revision(),
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.CacheTTL > 0 {
		g.Go(func() error {
			return cacheManager.Run(gctx, cfg.CacheTTL)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	requests, limits, detections := srv.Stats()
	hits, misses := dashCache.Stats()
	logger.Info("Server stopped gracefully",
		"requests", requests.TotalRequests,
		"avg_response_us", requests.AverageResponseTime,
		"rate_limited", limits.TotalHits,
		"suspicious", detections.SuspiciousRequests,
		"cache_hits", hits,
		"cache_misses", misses)
	return nil
}
