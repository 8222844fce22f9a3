package commands

import (
	"context"
	"fmt"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/external/yahoo"
	"github.com/wonny/stockcast/internal/forecast"
	"github.com/wonny/stockcast/internal/s0_data"
	"github.com/wonny/stockcast/internal/s0_data/collector"
	"github.com/wonny/stockcast/pkg/config"
	"github.com/wonny/stockcast/pkg/httputil"
	"github.com/wonny/stockcast/pkg/logger"
	"github.com/wonny/stockcast/pkg/redis"
)

// runtime holds the shared dependencies every command builds on
// ⭐ SSOT: 커맨드 의존성 조립은 여기서만
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	store contracts.FeatureStore
	redis *redis.Client
	cache *redis.Cache
	http  *httputil.Client
}

// newRuntime loads config, creates the logger and opens the store and cache
func newRuntime(ctx context.Context) (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Open feature store
	store, err := s0_data.OpenFeatureStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open feature store: %w", err)
	}
	log.WithField("driver", cfg.Database.Driver).Debug("Feature store opened")

	// 4. Connect to Redis (disabled → no-op client)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &runtime{
		cfg:   cfg,
		log:   log,
		store: store,
		redis: rc,
		cache: redis.NewCache(rc, "stockcast"),
		http:  httputil.New(cfg.MarketData.Timeout, log),
	}, nil
}

// Close releases the store and Redis connections
func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.log.WithError(err).Warn("Failed to close feature store")
	}
	if err := r.redis.Close(); err != nil {
		r.log.WithError(err).Warn("Failed to close redis")
	}
}

// collector wires the market-data client into a batch collector
func (r *runtime) collector() *collector.Collector {
	source := yahoo.NewClient(r.http, r.cfg.MarketData.BaseURL, r.log)
	return collector.NewCollector(source, r.store, r.cfg.Pipeline, r.cfg.MarketData.RequestDelay, r.log)
}

// forecastService loads the model artifacts and builds the forecast service
func (r *runtime) forecastService() (*forecast.Service, error) {
	p := r.cfg.Pipeline

	desc, err := forecast.LoadDescriptor(r.cfg.Model.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model descriptor: %w", err)
	}
	if err := desc.CheckCompatible(p.LookbackPeriod, p.Features); err != nil {
		return nil, fmt.Errorf("model incompatible with pipeline config: %w", err)
	}

	model, err := forecast.NewModel(desc, r.http)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	scalers, err := forecast.LoadScalers(r.cfg.Model.ScalersPath)
	if err != nil {
		return nil, fmt.Errorf("load scalers: %w", err)
	}

	preparer, err := forecast.NewPreparer(p.Features, p.TargetFeature, p.LookbackPeriod)
	if err != nil {
		return nil, fmt.Errorf("create preparer: %w", err)
	}
	if err := scalers.CheckCompatible(preparer); err != nil {
		return nil, fmt.Errorf("scalers incompatible with pipeline config: %w", err)
	}

	r.log.WithFields(map[string]interface{}{
		"model":   desc.Kind,
		"scalers": scalers.Len(),
	}).Info("Model artifacts loaded")

	zl := r.log.Zerolog()
	driver := forecast.NewDriver(model, preparer, zl)
	return forecast.NewService(r.store, scalers, driver, r.cache, r.cfg.Redis.CacheTTL, zl), nil
}
