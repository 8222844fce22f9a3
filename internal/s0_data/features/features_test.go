package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data/cleaner"
)

// syntheticBars builds n business-day bars with a smooth oscillating price
func syntheticBars(n int) []contracts.Bar {
	days := cleaner.BusinessDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bars := make([]contracts.Bar, n)
	for i := 0; i < n; i++ {
		c := 1000 + 40*math.Sin(float64(i)/6) + float64(i)
		bars[i] = contracts.Bar{
			Date:   days[i],
			Open:   c - 2,
			High:   c + 5,
			Low:    c - 5,
			Close:  c,
			Volume: 1_000_000 + float64(i%10)*10_000,
		}
	}
	return bars
}

func TestEMA_SMASeeded(t *testing.T) {
	out := EMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)
}

func TestRSI(t *testing.T) {
	t.Run("hand computed", func(t *testing.T) {
		out := RSI([]float64{1, 2, 1, 2}, 2)

		assert.True(t, math.IsNaN(out[0]))
		assert.True(t, math.IsNaN(out[1]))
		assert.InDelta(t, 100.0/3, out[2], 1e-9)
		assert.InDelta(t, 100*1.25/1.75, out[3], 1e-9)
	})

	t.Run("monotonic rise is 100", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = float64(100 + i)
		}
		out := RSI(closes, RSIPeriod)

		assert.True(t, math.IsNaN(out[RSIPeriod-1]))
		assert.InDelta(t, 100.0, out[RSIPeriod], 1e-9)
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 100
		}
		assert.Equal(t, 50.0, RSI(closes, RSIPeriod)[19])
	})
}

func TestMACD_WarmUp(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	line, signal := MACD(closes, MACDFast, MACDSlow, MACDSignal)

	assert.True(t, math.IsNaN(line[MACDSlow-2]))
	assert.False(t, math.IsNaN(line[MACDSlow-1]))
	assert.True(t, math.IsNaN(signal[MACDSlow-1+MACDSignal-2]))
	assert.False(t, math.IsNaN(signal[MACDSlow-1+MACDSignal-1]))
	// rising prices: fast EMA above slow EMA
	assert.Greater(t, line[39], 0.0)
}

func TestRollingStd(t *testing.T) {
	closes := make([]float64, 30)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * 1.01
	}

	out := RollingStd(closes, VolatilityWindow)

	assert.True(t, math.IsNaN(out[VolatilityWindow-1]))
	assert.InDelta(t, 0.0, out[VolatilityWindow], 1e-12, "constant returns have zero dispersion")

	// alternating returns: ±1% → sample std over 20 values
	alt := make([]float64, 22)
	alt[0] = 100
	for i := 1; i < len(alt); i++ {
		if i%2 == 1 {
			alt[i] = alt[i-1] * 1.01
		} else {
			alt[i] = alt[i-1] * 0.99
		}
	}
	got := RollingStd(alt, VolatilityWindow)[VolatilityWindow]
	assert.InDelta(t, math.Sqrt(20.0/19.0)*0.01, got, 1e-12)
}

func TestBuilder_ColumnOrderIsStableAcrossBatchSizes(t *testing.T) {
	builder := NewBuilder(contracts.DefaultFeatures())

	backfill, err := builder.Build("TCS.NS", syntheticBars(170))
	require.NoError(t, err)
	daily, err := builder.Build("TCS.NS", syntheticBars(70))
	require.NoError(t, err)

	backfillRows := backfill.DropIncomplete().Tail(60)
	dailyRows := daily.DropIncomplete().Tail(5)

	require.Equal(t, 60, backfillRows.Len())
	require.Equal(t, 5, dailyRows.Len())
	assert.Equal(t, contracts.DefaultFeatures(), backfillRows.Columns)
	assert.Equal(t, contracts.DefaultFeatures(), dailyRows.Columns)

	bm, err := backfillRows.Matrix()
	require.NoError(t, err)
	dm, err := dailyRows.Matrix()
	require.NoError(t, err)

	for _, row := range append(bm, dm...) {
		assert.Len(t, row, len(contracts.DefaultFeatures()))
	}
	// 첫 컬럼은 Close, 두번째는 Volume
	last := dailyRows.Rows[4]
	assert.Equal(t, last.Close, dm[4][0])
	assert.Equal(t, last.Volume, dm[4][1])
	assert.Equal(t, last.RSI14, dm[4][2])
	assert.Equal(t, last.MACD, dm[4][3])
	assert.Equal(t, last.Volatility20D, dm[4][4])
}

func TestBuilder_CustomOrder(t *testing.T) {
	builder := NewBuilder([]string{contracts.FeatureVolatility, contracts.FeatureClose})

	frame, err := builder.Build("TCS.NS", syntheticBars(40))
	require.NoError(t, err)

	m, err := frame.DropIncomplete().Matrix()
	require.NoError(t, err)
	require.NotEmpty(t, m)

	row := frame.DropIncomplete().Rows[0]
	assert.Equal(t, []float64{row.Volatility20D, row.Close}, m[0])
}

func TestBuilder_MissingColumnFails(t *testing.T) {
	builder := NewBuilder([]string{contracts.FeatureClose, "ATR_14"})

	frame, err := builder.Build("TCS.NS", syntheticBars(40))

	assert.ErrorIs(t, err, contracts.ErrMissingFeature)
	assert.Zero(t, frame.Len())
}

func TestBuilder_EmptyInput(t *testing.T) {
	_, err := NewBuilder(contracts.DefaultFeatures()).Build("TCS.NS", nil)
	assert.ErrorIs(t, err, contracts.ErrNoData)
}

func TestBuilder_WarmUpRowsDropped(t *testing.T) {
	frame, err := NewBuilder(contracts.DefaultFeatures()).Build("TCS.NS", syntheticBars(90))
	require.NoError(t, err)

	complete := frame.DropIncomplete()

	// MACD slow EMA is the longest warm-up
	assert.Equal(t, 90-(MACDSlow-1), complete.Len())
	assert.Equal(t, frame.Rows[MACDSlow-1].Date, complete.Rows[0].Date)
	for _, r := range complete.Rows {
		assert.True(t, r.IsComplete())
	}
}

func TestValidate(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	good := contracts.FeatureRow{Date: date, Symbol: "TCS.NS", Close: 100, Volume: 1000, RSI14: 55, MACD: -1.2, Volatility20D: 0.02}

	tests := []struct {
		name   string
		mutate func(r *contracts.FeatureRow)
		field  string
	}{
		{"rsi above 100", func(r *contracts.FeatureRow) { r.RSI14 = 120 }, contracts.FeatureRSI14},
		{"nan macd", func(r *contracts.FeatureRow) { r.MACD = math.NaN() }, contracts.FeatureMACD},
		{"volatility too high", func(r *contracts.FeatureRow) { r.Volatility20D = 1.5 }, contracts.FeatureVolatility},
		{"zero volume", func(r *contracts.FeatureRow) { r.Volume = 0 }, contracts.FeatureVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := good
			tt.mutate(&bad)

			valid, violations := Validate([]contracts.FeatureRow{good, bad})

			assert.Equal(t, []contracts.FeatureRow{good}, valid)
			require.Len(t, violations, 1)
			assert.Equal(t, tt.field, violations[0].Field)
			assert.Equal(t, "2024-03-01", violations[0].Date)
		})
	}
}
