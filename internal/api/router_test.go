package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/internal/api/handlers"
	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data"
	"github.com/wonny/stockcast/pkg/logger"
)

type fakeRunner struct {
	daily, backfill int
	err             error
}

func (f *fakeRunner) Backfill(context.Context) (contracts.BatchSummary, error) {
	f.backfill++
	return contracts.BatchSummary{Stage: contracts.StageBackfill, Total: 2, Succeeded: 2, RecordsSaved: 120}, f.err
}

func (f *fakeRunner) CollectDaily(context.Context) (contracts.BatchSummary, error) {
	f.daily++
	return contracts.BatchSummary{Stage: contracts.StageDaily, Total: 2, Succeeded: 2, RecordsSaved: 2}, f.err
}

type fakeService struct {
	lastDays int
}

func (f *fakeService) Recommend(_ context.Context, ticker string, days int) *contracts.RecommendationResult {
	f.lastDays = days
	if ticker == "BAD.NS" {
		return contracts.ErrorRecommendation(errors.New("no scaler for symbol BAD.NS"))
	}
	return &contracts.RecommendationResult{
		Status:             contracts.StatusSuccess,
		Ticker:             ticker,
		RecommendationDate: "2024-10-04",
		ForecastWindowDays: days,
	}
}

func (f *fakeService) PredictNext(_ context.Context, ticker string) *contracts.PredictionResult {
	return &contracts.PredictionResult{Status: contracts.StatusSuccess, Ticker: ticker, PredictedPrice: 4012.5}
}

func newTestRouter(t *testing.T) (http.Handler, *fakeRunner, *fakeService) {
	t.Helper()

	store, err := s0_data.OpenSQLiteFeatureStore(context.Background(), filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rows := make([]contracts.FeatureRow, 3)
	for i := range rows {
		rows[i] = contracts.FeatureRow{
			Date: time.Date(2024, 10, 1+i, 0, 0, 0, 0, time.UTC), Symbol: "TCS.NS",
			Close: 4000, Volume: 1e6, RSI14: 50, MACD: 1, Volatility20D: 0.02, QualityScore: 4,
		}
	}
	_, err = store.Upsert(context.Background(), rows)
	require.NoError(t, err)

	runner := &fakeRunner{}
	svc := &fakeService{}
	log := logger.Nop()

	router := NewRouter(
		handlers.NewDataHandler(store, runner, 60, log),
		handlers.NewForecastHandler(svc, log),
		store,
		log,
	)
	return router, runner, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, body := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.NotNil(t, body["store"])
	}
}

func TestRouter_Forecast(t *testing.T) {
	router, _, svc := newTestRouter(t)

	t.Run("default days", func(t *testing.T) {
		rec, body := do(t, router, http.MethodGet, "/api/v1/forecast/TCS.NS", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, handlers.DefaultForecastDays, svc.lastDays)
	})

	t.Run("explicit days", func(t *testing.T) {
		rec, _ := do(t, router, http.MethodGet, "/api/v1/forecast/TCS.NS?days=10", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, svc.lastDays)
	})

	t.Run("bad days", func(t *testing.T) {
		rec, body := do(t, router, http.MethodGet, "/api/v1/forecast/TCS.NS?days=ten", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "days")
	})

	t.Run("error result", func(t *testing.T) {
		rec, body := do(t, router, http.MethodGet, "/api/v1/forecast/BAD.NS", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.Contains(t, body["message"], "no scaler")
	})

	t.Run("predict", func(t *testing.T) {
		rec, body := do(t, router, http.MethodGet, "/api/v1/predict/TCS.NS", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4012.5, body["predicted_price"])
	})
}

func TestRouter_Collect(t *testing.T) {
	router, runner, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/v1/data/collect", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "daily", body["type"])
	assert.Equal(t, 1, runner.daily)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/data/collect", `{"type": "backfill"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.backfill)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/data/collect", `{"type": "hourly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	runner.err = context.Canceled
	rec, _ = do(t, router, http.MethodPost, "/api/v1/data/collect", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Quality(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/v1/data/quality", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, body["total_records"])
	assert.Equal(t, 4.0, body["average_quality"])
	assert.Nil(t, body["ready_symbols"], "3 rows is short of a 60-row lookback")
}
