// Package main запускает HTTP-сервер сервиса приёма заказов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/orderdesk/internal/catalog"
	"github.com/mmeshcher/orderdesk/internal/catalogsync"
	"github.com/mmeshcher/orderdesk/internal/config"
	"github.com/mmeshcher/orderdesk/internal/handler"
	"github.com/mmeshcher/orderdesk/internal/middleware"
	"github.com/mmeshcher/orderdesk/internal/obs"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/repository"
	"github.com/mmeshcher/orderdesk/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var repo service.Repository
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("DATABASE_URI is not set, data is kept in memory")
		repo = repository.NewMemoryRepository()
	}

	var cache *catalog.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("redis configuration error", "error", err.Error())
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cache = catalog.NewCache(rdb, cfg.CacheTTL)
	}

	metrics, err := obs.NewMetrics("orderdesk", prometheus.DefaultRegisterer)
	if err != nil {
		sugar.Fatalw("metrics initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, service.Options{
		Credentials: service.Credentials{Login: cfg.AdminLogin, Password: cfg.AdminPassword},
		Rules:       order.Rules{RequireSeller: cfg.RequireSeller},
		Cache:       cache,
		Metrics:     metrics,
		Logger:      logger,
	})
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Load(ctx); err != nil {
		sugar.Fatalw("loading application state error", "error", err.Error())
	}

	var syncer *catalogsync.Syncer
	if cfg.CatalogSourceAddress != "" {
		syncer = catalogsync.NewSyncer(
			catalogsync.NewClient(cfg.CatalogSourceAddress),
			svc,
			cfg.CatalogSyncInterval,
			logger,
			metrics,
		)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware, metrics)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Синхронизация каталога с внешней системой
	g.Go(func() error {
		syncer.Start(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting orderdesk server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
