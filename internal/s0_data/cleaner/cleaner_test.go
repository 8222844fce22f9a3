package cleaner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/internal/contracts"
)

// makeBars builds n consecutive business-day bars starting Monday 2024-01-01
// with a gentle price drift and constant volume.
func makeBars(n int) []contracts.Bar {
	days := BusinessDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bars := make([]contracts.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i%7) - 3
		bars[i] = contracts.Bar{
			Date:   days[i],
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func without(bars []contracts.Bar, idx ...int) []contracts.Bar {
	skip := make(map[int]bool)
	for _, i := range idx {
		skip[i] = true
	}
	var out []contracts.Bar
	for i, b := range bars {
		if !skip[i] {
			out = append(out, b)
		}
	}
	return out
}

func assertCleaned(t *testing.T, bars []contracts.Bar) {
	t.Helper()
	for i, b := range bars {
		assert.True(t, b.IsPositive(), "bar %d has non-positive field", i)
		wd := b.Date.Weekday()
		assert.False(t, wd == time.Saturday || wd == time.Sunday, "bar %d on weekend", i)
		if i > 0 {
			assert.True(t, b.Date.After(bars[i-1].Date), "bar %d not after previous", i)
			ret := b.Close/bars[i-1].Close - 1
			assert.LessOrEqual(t, math.Abs(ret), MaxDailyReturn, "bar %d return %v", i, ret)
		}
	}
}

func TestClean_Empty(t *testing.T) {
	res := Clean(nil, "TCS.NS")
	assert.Empty(t, res.Bars)
	assert.False(t, res.GapAffected)
}

func TestClean_CleanInputUnchanged(t *testing.T) {
	bars := makeBars(60)
	res := Clean(bars, "TCS.NS")

	require.Len(t, res.Bars, 60)
	assert.Equal(t, bars, res.Bars)
	assert.Zero(t, res.MissingDays)
	assertCleaned(t, res.Bars)
}

func TestClean_DropsNonPositive(t *testing.T) {
	bars := makeBars(40)
	bars[0].Volume = 0
	bars[1].Low = -1

	res := Clean(bars, "TCS.NS")

	assert.Equal(t, 2, res.DroppedNonPositive)
	assert.Len(t, res.Bars, 38)
	assertCleaned(t, res.Bars)
}

func TestClean_DropsLowVolumeRelativeToBatch(t *testing.T) {
	bars := makeBars(20)
	for i := range bars {
		bars[i].Volume = float64(i + 1) // p5 = 1.95
	}

	res := Clean(bars, "TCS.NS")

	assert.Equal(t, 1, res.DroppedLowVolume)
	require.Len(t, res.Bars, 19)
	assert.Equal(t, 2.0, res.Bars[0].Volume)
}

func TestClean_DropsReturnOutliers(t *testing.T) {
	bars := makeBars(5)
	closes := []float64{100, 101, 150, 102, 103}
	for i, c := range closes {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = c, c, c, c
	}

	res := Clean(bars, "TCS.NS")

	// spike and the bar right after it both move more than 20%
	assert.Equal(t, 2, res.DroppedOutliers)
	got := make([]float64, len(res.Bars))
	for i, b := range res.Bars {
		got[i] = b.Close
	}
	assert.Equal(t, []float64{100, 101, 103}, got[:3])
	assertCleaned(t, res.Bars)
}

func TestClean_OutlierRemovalReachesFixedPoint(t *testing.T) {
	bars := makeBars(4)
	closes := []float64{100, 130, 131, 100}
	for i, c := range closes {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = c, c, c, c
	}

	res := Clean(bars, "TCS.NS")

	assertCleaned(t, res.Bars)
}

func TestClean_NormalizesDatesAndDropsWeekends(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	bars := makeBars(10)
	bars[3].Date = time.Date(2024, 1, 4, 15, 30, 0, 0, ist)

	saturday := bars[4]
	saturday.Date = time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	bars = append(bars, saturday)

	res := Clean(bars, "TCS.NS")

	assert.Equal(t, 1, res.DroppedWeekend)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), res.Bars[3].Date)
	assertCleaned(t, res.Bars)
}

func TestClean_SortsAscending(t *testing.T) {
	bars := makeBars(30)
	reversed := make([]contracts.Bar, len(bars))
	for i, b := range bars {
		reversed[len(bars)-1-i] = b
	}

	res := Clean(reversed, "TCS.NS")

	assert.Equal(t, bars, res.Bars)
}

func TestClean_GapRepair(t *testing.T) {
	tests := []struct {
		name        string
		removed     []int
		wantLen     int
		wantFilled  int
		gapAffected bool
	}{
		{"2 of 60 missing is forward-filled", []int{10, 30}, 60, 2, false},
		{"4 of 60 missing is left alone", []int{10, 20, 30, 40}, 56, 0, true},
		{"3 of 60 missing (5%) is left alone", []int{10, 20, 30}, 57, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full := makeBars(60)
			input := without(full, tt.removed...)

			res := Clean(input, "TCS.NS")

			assert.Equal(t, tt.gapAffected, res.GapAffected)
			assert.Equal(t, len(tt.removed), res.MissingDays)
			assert.Equal(t, tt.wantFilled, res.FilledDays)
			require.Len(t, res.Bars, tt.wantLen)
			assertCleaned(t, res.Bars)

			if tt.gapAffected {
				assert.Equal(t, input, res.Bars, "gap-affected output must not be reindexed")
				return
			}

			// one row per business day
			for i, b := range res.Bars {
				assert.Equal(t, full[i].Date, b.Date)
			}
			// filled day equals the preceding present day
			for _, idx := range tt.removed {
				filled := res.Bars[idx]
				prev := res.Bars[idx-1]
				assert.Equal(t, prev.Close, filled.Close)
				assert.Equal(t, prev.Open, filled.Open)
				assert.Equal(t, prev.High, filled.High)
				assert.Equal(t, prev.Low, filled.Low)
				assert.Equal(t, prev.Volume, filled.Volume)
			}
		})
	}
}

func TestBusinessDays(t *testing.T) {
	// Fri 2024-01-05 .. Tue 2024-01-09
	days := BusinessDays(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	require.Len(t, days, 3)
	assert.Equal(t, time.Friday, days[0].Weekday())
	assert.Equal(t, time.Monday, days[1].Weekday())
}
