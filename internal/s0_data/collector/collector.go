package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data/cleaner"
	"github.com/wonny/stockcast/internal/s0_data/features"
	"github.com/wonny/stockcast/internal/s0_data/quality"
	"github.com/wonny/stockcast/pkg/config"
	"github.com/wonny/stockcast/pkg/logger"
)

// Collector runs the clean → features → quality → store batch over the ticker list
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source  contracts.MarketDataSource
	store   contracts.FeatureStore
	builder *features.Builder
	scorer  *quality.Scorer
	cfg     config.PipelineConfig
	limiter *rate.Limiter
	logger  *logger.Logger
	now     func() time.Time
}

// NewCollector creates a new Collector instance.
// requestDelay spaces consecutive source fetches (0 disables throttling).
func NewCollector(
	source contracts.MarketDataSource,
	store contracts.FeatureStore,
	cfg config.PipelineConfig,
	requestDelay time.Duration,
	log *logger.Logger,
) *Collector {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(requestDelay), 1)
	}

	return &Collector{
		source:  source,
		store:   store,
		builder: features.NewBuilder(cfg.Features),
		scorer:  quality.NewScorer(quality.DefaultConfig()),
		cfg:     cfg,
		limiter: limiter,
		logger:  log.WithField("module", "collector"),
		now:     time.Now,
	}
}

// WithClock overrides the reference "today"
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// plan describes one collection mode
type plan struct {
	stage        contracts.Stage
	calendarDays int // 조회 기간
	minClean     int // 정제 후 최소 행 수 (0 = 제한 없음)
	minComplete  int // warm-up 제거 후 최소 행 수
	keep         int // 저장할 최근 행 수
}

func (c *Collector) backfillPlan() plan {
	return plan{
		stage:        contracts.StageBackfill,
		calendarDays: c.cfg.BackfillCalendarDays,
		minClean:     c.cfg.MinCleanRows,
		minComplete:  c.cfg.BackfillRows,
		keep:         c.cfg.BackfillRows,
	}
}

func (c *Collector) dailyPlan() plan {
	return plan{
		stage:        contracts.StageDaily,
		calendarDays: c.cfg.DailyCalendarDays,
		minComplete:  1,
		keep:         c.cfg.DailyRecentRows,
	}
}

// Backfill loads the initial lookback history for every ticker
func (c *Collector) Backfill(ctx context.Context) (contracts.BatchSummary, error) {
	return c.run(ctx, c.backfillPlan())
}

// CollectDaily appends the most recent rows for every ticker
func (c *Collector) CollectDaily(ctx context.Context) (contracts.BatchSummary, error) {
	return c.run(ctx, c.dailyPlan())
}

// run processes tickers sequentially; a failing symbol never aborts the batch.
// Only context cancellation is returned as an error.
func (c *Collector) run(ctx context.Context, p plan) (contracts.BatchSummary, error) {
	tickers := c.cfg.Tickers
	summary := contracts.NewBatchSummary(p.stage, len(tickers))

	to := contracts.DateOnly(c.now())
	from := to.AddDate(0, 0, -p.calendarDays)

	c.logger.WithFields(map[string]interface{}{
		"stage":   p.stage,
		"tickers": len(tickers),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
	}).Info("Starting collection")

	for _, symbol := range tickers {
		if err := c.limiter.Wait(ctx); err != nil {
			summary.Duration = time.Since(summary.StartedAt)
			return summary, fmt.Errorf("collection interrupted: %w", err)
		}

		log := c.logger.WithStage(p.stage.String()).WithSymbol(symbol)

		saved, degraded, err := c.collectSymbol(ctx, symbol, from, to, p, log)
		switch {
		case err == nil:
			summary.RecordSuccess(saved)
			if degraded {
				summary.RecordDegraded(symbol)
			}
			log.WithFields(map[string]interface{}{
				"saved":    saved,
				"degraded": degraded,
			}).Info("Symbol collected")
		case ctx.Err() != nil:
			summary.Duration = time.Since(summary.StartedAt)
			return summary, fmt.Errorf("collection interrupted: %w", ctx.Err())
		case errors.Is(err, contracts.ErrNoData):
			summary.RecordSkip(symbol, err)
			log.WithError(err).Warn("Symbol skipped")
		default:
			summary.RecordFailure(symbol, err)
			log.WithError(err).Error("Symbol failed")
		}
	}

	summary.Duration = time.Since(summary.StartedAt)

	c.logger.WithFields(map[string]interface{}{
		"stage":     p.stage,
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"degraded":  len(summary.Degraded),
		"saved":     summary.RecordsSaved,
		"duration":  summary.Duration.String(),
	}).Info("Collection completed")

	return summary, nil
}

// collectSymbol returns the number of newly inserted rows and whether the
// stored rows come from a sequence whose gaps were left unfilled
func (c *Collector) collectSymbol(ctx context.Context, symbol string, from, to time.Time, p plan, log *logger.Logger) (int, bool, error) {
	bars, err := c.source.FetchHistory(ctx, symbol, from, to)
	if err != nil {
		return 0, false, fmt.Errorf("fetch history: %w", err)
	}
	if len(bars) == 0 {
		return 0, false, fmt.Errorf("%w: source returned no bars", contracts.ErrNoData)
	}

	// 1. Clean
	cleaned := cleaner.Clean(bars, symbol)
	log.WithFields(map[string]interface{}{
		"raw":          len(bars),
		"clean":        len(cleaned.Bars),
		"non_positive": cleaned.DroppedNonPositive,
		"low_volume":   cleaned.DroppedLowVolume,
		"outliers":     cleaned.DroppedOutliers,
		"weekend":      cleaned.DroppedWeekend,
		"filled":       cleaned.FilledDays,
		"gap_ratio":    cleaned.GapRatio(),
	}).Debug("Cleaned bars")
	if cleaned.GapAffected {
		log.WithField("missing_days", cleaned.MissingDays).Warn("Gap ratio too high, gaps left unfilled")
	}
	if len(cleaned.Bars) == 0 {
		return 0, false, fmt.Errorf("%w: nothing left after cleaning", contracts.ErrNoData)
	}
	if len(cleaned.Bars) < p.minClean {
		return 0, false, fmt.Errorf("%w: %d clean rows, need %d", contracts.ErrNoData, len(cleaned.Bars), p.minClean)
	}

	// 2. Features (warm-up 제거)
	frame, err := c.builder.Build(symbol, cleaned.Bars)
	if err != nil {
		return 0, false, fmt.Errorf("build features: %w", err)
	}
	frame = frame.DropIncomplete()

	// 3. Validate
	valid, violations := features.Validate(frame.Rows)
	for _, v := range violations {
		log.WithField("violation", v.String()).Warn("Dropping invalid feature row")
	}
	frame.Rows = valid

	if frame.Len() < p.minComplete {
		return 0, false, fmt.Errorf("%w: %d complete feature rows, need %d", contracts.ErrNoData, frame.Len(), p.minComplete)
	}

	// 4. Quality (최종 저장 구간 기준)
	frame = frame.Tail(p.keep)
	rows := c.scorer.Apply(frame.Rows)

	// 5. Store
	inserted, err := c.store.Upsert(ctx, rows)
	if err != nil {
		return 0, false, fmt.Errorf("upsert features: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"rows":        len(rows),
		"inserted":    inserted,
		"avg_quality": quality.Mean(rows),
	}).Debug("Stored feature rows")

	return inserted, cleaned.GapAffected, nil
}
