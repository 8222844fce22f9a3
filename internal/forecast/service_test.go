package forecast

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data"
	"github.com/wonny/stockcast/internal/tradingcal"
)

func newTestService(t *testing.T, model Model) (*Service, contracts.LookbackWindow) {
	t.Helper()
	ctx := context.Background()

	store, err := s0_data.OpenSQLiteFeatureStore(ctx, filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	window := pipelineWindow(t, "TCS.NS")
	_, err = store.Upsert(ctx, window.Rows)
	require.NoError(t, err)

	// 40 rows only: lookback 60 미달
	_, err = store.Upsert(ctx, relabel(window.Rows[20:], "INFY.NS"))
	require.NoError(t, err)

	scalers := NewScalerSet(
		fitScaler(t, window, contracts.DefaultFeatures()),
		fitScaler(t, contracts.LookbackWindow{Symbol: "INFY.NS", Rows: window.Rows}, contracts.DefaultFeatures()),
	)

	svc := NewService(store, scalers, NewDriver(model, newPreparer(t), zerolog.Nop()), nil, time.Hour, zerolog.Nop()).
		WithCalendar(func(string) *tradingcal.Calendar { return tradingcal.Weekdays() })
	return svc, window
}

func relabel(rows []contracts.FeatureRow, symbol string) []contracts.FeatureRow {
	out := make([]contracts.FeatureRow, len(rows))
	for i, r := range rows {
		r.Symbol = symbol
		out[i] = r
	}
	return out
}

func TestService_Recommend(t *testing.T) {
	svc, window := newTestService(t, closeOnlyModel(0.99))

	res := svc.Recommend(context.Background(), "tcs.ns", 3)
	require.Equal(t, contracts.StatusSuccess, res.Status, res.Message)

	assert.Equal(t, "TCS.NS", res.Ticker)
	assert.Equal(t, 3, res.ForecastWindowDays)
	require.Len(t, res.Forecast, 3)

	cal := tradingcal.Weekdays()
	for i, pt := range res.Forecast {
		assert.Equal(t, cal.Add(window.LastDate(), i+1).Format("2006-01-02"), pt.Date)
	}

	last := res.Forecast[2]
	assert.Equal(t, last.Date, res.RecommendationDate)
	assert.Equal(t, last.PredictedPrice, res.RecommendedPrice)
	assert.Equal(t, "The best day to purchase is expected to be "+last.Date+".", res.Recommendation)

	for _, pt := range res.Forecast {
		assert.Equal(t, round2(pt.PredictedPrice), pt.PredictedPrice)
	}
}

func TestService_RecommendErrors(t *testing.T) {
	svc, _ := newTestService(t, closeOnlyModel(1))
	ctx := context.Background()

	tests := []struct {
		name    string
		ticker  string
		days    int
		message string
	}{
		{name: "unknown symbol", ticker: "WIPRO.NS", days: 3, message: "insufficient data"},
		{name: "short history", ticker: "INFY.NS", days: 3, message: "need 60, found 40"},
		{name: "zero days", ticker: "TCS.NS", days: 0, message: "forecast days"},
		{name: "too many days", ticker: "TCS.NS", days: MaxHorizonDays + 1, message: "forecast days"},
		{name: "empty ticker", ticker: " ", days: 3, message: "ticker is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Recommend(ctx, tt.ticker, tt.days)
			assert.Equal(t, contracts.StatusError, res.Status)
			assert.Contains(t, res.Message, tt.message)
			assert.Empty(t, res.Forecast)
		})
	}
}

func TestService_NoScaler(t *testing.T) {
	svc, window := newTestService(t, closeOnlyModel(1))
	svc.scalers = NewScalerSet(fitScaler(t, contracts.LookbackWindow{Symbol: "INFY.NS", Rows: window.Rows}, contracts.DefaultFeatures()))

	res := svc.PredictNext(context.Background(), "TCS.NS")
	assert.Equal(t, contracts.StatusError, res.Status)
	assert.Contains(t, res.Message, "no scaler for symbol TCS.NS")
}

func TestService_PredictNext(t *testing.T) {
	svc, window := newTestService(t, closeOnlyModel(1))

	res := svc.PredictNext(context.Background(), "TCS.NS")
	require.Equal(t, contracts.StatusSuccess, res.Status, res.Message)

	first, last := window.Rows[0], window.Rows[59]
	require.NotNil(t, res.DataUsed)
	assert.Equal(t, first.Date.Format("2006-01-02"), res.DataUsed.StartPoint.Date)
	assert.Equal(t, last.Date.Format("2006-01-02"), res.DataUsed.EndPoint.Date)
	assert.Equal(t, round2(last.Close), res.DataUsed.EndPoint.Price)

	// 가중치 1 → 마지막 종가 그대로
	assert.InDelta(t, round2(last.Close), res.PredictedPrice, 1e-9)
	assert.Equal(t, tradingcal.Weekdays().Next(last.Date).Format("2006-01-02"), res.PredictionDate)
}
