package jobs

import (
	"context"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/logger"
)

// Recommender produces a recommendation for one ticker
type Recommender interface {
	Recommend(ctx context.Context, ticker string, days int) *contracts.RecommendationResult
}

// ForecastJob precomputes recommendations after the daily collection so API
// requests for the configured tickers hit the cache
type ForecastJob struct {
	recommender Recommender
	tickers     []string
	days        int
	logger      *logger.Logger
}

// NewForecastJob creates a new forecast job
func NewForecastJob(rec Recommender, tickers []string, days int, log *logger.Logger) *ForecastJob {
	return &ForecastJob{
		recommender: rec,
		tickers:     tickers,
		days:        days,
		logger:      log.WithField("job", "forecast_warmup"),
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "forecast_warmup"
}

// Schedule returns the cron schedule (weekdays 17:00, after collection)
func (j *ForecastJob) Schedule() string {
	return "0 0 17 * * MON-FRI"
}

// Run forecasts every ticker; per-ticker failures are logged, not returned
func (j *ForecastJob) Run(ctx context.Context) error {
	ok := 0
	for _, ticker := range j.tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := j.recommender.Recommend(ctx, ticker, j.days)
		if res.Status != contracts.StatusSuccess {
			j.logger.WithSymbol(ticker).WithField("message", res.Message).Warn("Forecast failed")
			continue
		}

		ok++
		j.logger.WithSymbol(ticker).WithFields(map[string]interface{}{
			"recommendation_date": res.RecommendationDate,
			"recommended_price":   res.RecommendedPrice,
		}).Info("Forecast ready")
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": ok,
		"total":     len(j.tickers),
	}).Info("Forecast warm-up completed")
	return nil
}
