package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/tradingcal"
	"github.com/wonny/stockcast/pkg/redis"
)

const dateLayout = "2006-01-02"

// Service turns stored feature history into structured forecast results.
// Every failure is returned in the result's error form, never as a Go error.
// ⭐ SSOT: 예측 결과 생성은 여기서만
type Service struct {
	store    contracts.FeatureStore
	scalers  *ScalerSet
	driver   *Driver
	cache    *redis.Cache
	cacheTTL time.Duration
	calendar func(symbol string) *tradingcal.Calendar
	log      zerolog.Logger
}

// NewService creates a forecast service; cache may be nil
func NewService(store contracts.FeatureStore, scalers *ScalerSet, driver *Driver, cache *redis.Cache, cacheTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		scalers:  scalers,
		driver:   driver,
		cache:    cache,
		cacheTTL: cacheTTL,
		calendar: tradingcal.ForSymbol,
		log:      log.With().Str("component", "forecast.service").Logger(),
	}
}

// WithCalendar overrides how a symbol's trading calendar is resolved
func (s *Service) WithCalendar(fn func(symbol string) *tradingcal.Calendar) *Service {
	s.calendar = fn
	return s
}

// Recommend forecasts the next days trading days and picks the cheapest one
func (s *Service) Recommend(ctx context.Context, ticker string, days int) *contracts.RecommendationResult {
	ticker = normalizeTicker(ticker)
	log := s.log.With().Str("stage", contracts.StageForecast.String()).Str("symbol", ticker).Logger()

	result, err := s.recommend(ctx, ticker, days)
	if err != nil {
		log.Warn().Err(err).Int("days", days).Msg("recommendation failed")
		return contracts.ErrorRecommendation(err)
	}
	return result
}

func (s *Service) recommend(ctx context.Context, ticker string, days int) (*contracts.RecommendationResult, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if days < 1 || days > MaxHorizonDays {
		return nil, fmt.Errorf("forecast days must be within [1, %d], got %d", MaxHorizonDays, days)
	}

	window, scaler, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	key := redis.ForecastKey(ticker, window.LastDate().Format(dateLayout), days)
	var cached contracts.RecommendationResult
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if hit {
		return &cached, nil
	}

	steps, err := s.driver.Forecast(ctx, window, scaler, s.calendar(ticker), days)
	if err != nil {
		return nil, err
	}

	best := LowestIndex(steps)
	forecast := make([]contracts.ForecastPoint, len(steps))
	for i, st := range steps {
		forecast[i] = contracts.ForecastPoint{
			Date:           st.Date.Format(dateLayout),
			PredictedPrice: round2(st.Price),
		}
	}

	bestDate := steps[best].Date.Format(dateLayout)
	result := &contracts.RecommendationResult{
		Status:             contracts.StatusSuccess,
		Ticker:             ticker,
		Recommendation:     fmt.Sprintf("The best day to purchase is expected to be %s.", bestDate),
		RecommendationDate: bestDate,
		RecommendedPrice:   round2(steps[best].Price),
		ForecastWindowDays: days,
		Forecast:           forecast,
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return result, nil
}

// PredictNext predicts the next trading day's target value
func (s *Service) PredictNext(ctx context.Context, ticker string) *contracts.PredictionResult {
	ticker = normalizeTicker(ticker)
	log := s.log.With().Str("stage", contracts.StageInference.String()).Str("symbol", ticker).Logger()

	result, err := s.predictNext(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Msg("prediction failed")
		return contracts.ErrorPrediction(err)
	}
	return result
}

func (s *Service) predictNext(ctx context.Context, ticker string) (*contracts.PredictionResult, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	window, scaler, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	key := redis.PredictionKey(ticker, window.LastDate().Format(dateLayout))
	var cached contracts.PredictionResult
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if hit {
		return &cached, nil
	}

	price, err := s.driver.PredictNext(ctx, window, scaler)
	if err != nil {
		return nil, err
	}

	first, last := window.Rows[0], window.Rows[window.Len()-1]
	result := &contracts.PredictionResult{
		Status:         contracts.StatusSuccess,
		Ticker:         ticker,
		PredictionDate: s.calendar(ticker).Next(last.Date).Format(dateLayout),
		PredictedPrice: round2(price),
		DataUsed: &contracts.DataUsed{
			StartPoint: contracts.PricePoint{Date: first.Date.Format(dateLayout), Price: round2(first.Close)},
			EndPoint:   contracts.PricePoint{Date: last.Date.Format(dateLayout), Price: round2(last.Close)},
		},
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return result, nil
}

// load fetches the lookback window and the symbol's scaler
func (s *Service) load(ctx context.Context, ticker string) (contracts.LookbackWindow, *Scaler, error) {
	window, err := s.store.FetchLookback(ctx, ticker, s.driver.Preparer().Lookback())
	if err != nil {
		return contracts.LookbackWindow{}, nil, err
	}

	scaler, err := s.scalers.Get(ticker)
	if err != nil {
		return contracts.LookbackWindow{}, nil, err
	}
	return window, scaler, nil
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
