package catalogsync

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/obs"
)

// Fetcher описывает источник каталога.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]model.Product, int, time.Duration, error)
}

// Target принимает загруженный каталог.
type Target interface {
	ReplaceCatalog(ctx context.Context, products []model.Product) error
}

// Syncer периодически загружает каталог и передаёт его в Target.
type Syncer struct {
	fetcher  Fetcher
	target   Target
	interval time.Duration
	logger   *zap.Logger
	metrics  *obs.Metrics
}

// NewSyncer создаёт синхронизатор каталога.
func NewSyncer(fetcher Fetcher, target Target, interval time.Duration, logger *zap.Logger, metrics *obs.Metrics) *Syncer {
	if interval <= 0 {
		interval = time.Minute
	}
	if metrics == nil {
		metrics = obs.Discard()
	}
	return &Syncer{
		fetcher:  fetcher,
		target:   target,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start загружает каталог сразу и затем с заданным интервалом до отмены ctx.
func (s *Syncer) Start(ctx context.Context) {
	if s == nil || s.fetcher == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if wait := s.SyncOnce(ctx); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce выполняет одну загрузку. Возвращает дополнительную паузу, запрошенную источником.
func (s *Syncer) SyncOnce(ctx context.Context) time.Duration {
	products, status, retryAfter, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		s.metrics.CatalogSyncs.WithLabelValues("error").Inc()
		s.logger.Warn("catalog fetch error", zap.Error(err))
		return 0
	}

	switch status {
	case http.StatusTooManyRequests:
		s.metrics.CatalogSyncs.WithLabelValues("throttled").Inc()
		return retryAfter
	case http.StatusNoContent:
		s.metrics.CatalogSyncs.WithLabelValues("unchanged").Inc()
		return 0
	}

	if len(products) == 0 {
		s.metrics.CatalogSyncs.WithLabelValues("error").Inc()
		s.logger.Warn("catalog feed returned no products, keeping current catalog")
		return 0
	}

	if err := s.target.ReplaceCatalog(ctx, products); err != nil {
		s.metrics.CatalogSyncs.WithLabelValues("error").Inc()
		s.logger.Error("catalog replace error", zap.Error(err))
		return 0
	}

	s.metrics.CatalogSyncs.WithLabelValues("ok").Inc()
	s.logger.Info("catalog synchronised", zap.Int("products", len(products)))
	return 0
}
