package app

import (
	"context"
	"time"

	"github.com/garyellow/whattoeat-linebot/internal/config"
	"github.com/garyellow/whattoeat-linebot/internal/imagesearch"
)

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.goJob("cache_cleanup", func() { a.cacheCleanup(ctx) })
	a.goJob("cache_metrics", func() { a.updateCacheSizeMetrics(ctx) })
}

func (a *Application) goJob(name string, fn func()) {
	a.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.WithField("job", name).WithField("panic", r).Error("Panic in background job")
			}
		}()
		fn()
	})
}

// cacheCleanup deletes expired menu links after an initial delay, then on
// every CacheCleanupInterval tick until ctx is canceled.
func (a *Application) cacheCleanup(ctx context.Context) {
	a.logger.Debug("Cache cleanup job started")
	defer a.logger.Debug("Cache cleanup job stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.CacheCleanupInitialDelay):
		a.runCacheCleanup(ctx)
	}

	ticker := time.NewTicker(config.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runCacheCleanup(ctx)
		}
	}
}

// runCacheCleanup performs one cleanup pass.
func (a *Application) runCacheCleanup(ctx context.Context) {
	start := time.Now()

	deleted, err := a.db.DeleteExpiredMenuLinks(ctx, a.cfg.CacheTTL)
	if err != nil {
		a.logger.WithError(err).Error("Failed to cleanup expired menu links")
		if a.metrics != nil {
			a.metrics.RecordJob("cache_cleanup", "error")
		}
		return
	}

	a.logger.WithField("deleted", deleted).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Cache cleanup completed")
	if a.metrics != nil {
		a.metrics.RecordJob("cache_cleanup", "success")
	}
	a.recordCacheSizeMetrics(ctx)
}

// updateCacheSizeMetrics periodically records cache size to Prometheus.
func (a *Application) updateCacheSizeMetrics(ctx context.Context) {
	a.logger.Debug("Cache metrics job started")
	defer a.logger.Debug("Cache metrics job stopped")

	a.recordCacheSizeMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordCacheSizeMetrics(ctx)
		}
	}
}

func (a *Application) recordCacheSizeMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	count, err := a.db.CountMenuLinks(ctx)
	if err != nil {
		a.logger.WithError(err).Debug("Failed to count menu links")
		return
	}
	a.metrics.SetCacheEntries(imagesearch.CacheName, count)
}
