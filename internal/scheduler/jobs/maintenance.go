package jobs

import (
	"context"

	"github.com/wonny/stockcast/pkg/logger"
	"github.com/wonny/stockcast/pkg/redis"
)

// CacheCleanupJob purges cached forecast results once a week
type CacheCleanupJob struct {
	cache   *redis.Cache
	tickers []string
	logger  *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache *redis.Cache, tickers []string, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:   cache,
		tickers: tickers,
		logger:  log.WithField("job", "cache_cleanup"),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (Sunday 03:00)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 3 * * SUN"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	removed := 0
	for _, ticker := range j.tickers {
		n, err := j.cache.DeletePattern(ctx, redis.SymbolPattern(ticker))
		if err != nil {
			return err
		}
		removed += n
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache cleanup completed")
	}
	return nil
}
