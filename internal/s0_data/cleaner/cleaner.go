package cleaner

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data/stats"
)

// Cleaning thresholds
const (
	LowVolumePercentile = 0.05 // 하위 5% 거래량 세션 제거 (반일장, 부분 체결)
	MaxDailyReturn      = 0.20 // 일간 ±20% 초과는 데이터 오류로 간주
	MaxGapRatio         = 0.05 // 결측 영업일 비율이 이 미만이면 forward-fill
)

// Result is a cleaned bar sequence for one symbol plus what was changed
type Result struct {
	Symbol string
	Bars   []contracts.Bar

	// GapAffected: missing business days ≥ MaxGapRatio, gaps left unfilled.
	// Downstream features for this symbol are degraded.
	GapAffected  bool
	BusinessDays int
	MissingDays  int
	FilledDays   int

	DroppedNonPositive int
	DroppedLowVolume   int
	DroppedOutliers    int
	DroppedWeekend     int
	DroppedDuplicate   int
}

// GapRatio returns missing/total business days in the cleaned range
func (r Result) GapRatio() float64 {
	if r.BusinessDays == 0 {
		return 0
	}
	return float64(r.MissingDays) / float64(r.BusinessDays)
}

// Clean validates and repairs a raw daily-bar sequence for one symbol
// ⭐ SSOT: 원시 일봉 정제 규칙은 여기서만
//
// Steps: non-positive drop → low-volume drop → return outlier drop →
// date normalize + weekend drop → sort → gap repair.
// Empty input returns an empty Result without error.
func Clean(bars []contracts.Bar, symbol string) Result {
	res := Result{Symbol: symbol}
	if len(bars) == 0 {
		return res
	}

	// 1. 비양수 필드 제거
	out := make([]contracts.Bar, 0, len(bars))
	for _, b := range bars {
		if b.IsPositive() {
			out = append(out, b)
		}
	}
	res.DroppedNonPositive = len(bars) - len(out)

	// 2. 배치 기준 하위 5% 거래량 제거
	out, res.DroppedLowVolume = dropLowVolume(out)

	// 3. 일간 수익률 이상치 제거
	var dropped int
	out, dropped = dropReturnOutliers(out)
	res.DroppedOutliers += dropped

	// 4. 날짜 정규화 + 주말 제거
	kept := out[:0]
	for _, b := range out {
		b.Date = contracts.DateOnly(b.Date)
		if isWeekend(b.Date) {
			res.DroppedWeekend++
			continue
		}
		kept = append(kept, b)
	}
	out = kept

	// 5. 날짜 오름차순 정렬 (같은 날짜는 마지막 값 유지)
	out, res.DroppedDuplicate = sortDedupe(out)

	// 정렬/주말 제거로 인접 쌍이 바뀌었을 수 있음
	out, dropped = dropReturnOutliers(out)
	res.DroppedOutliers += dropped

	if len(out) == 0 {
		return res
	}

	// 6. 영업일 결측 보정
	res.Bars, res.BusinessDays, res.MissingDays, res.FilledDays, res.GapAffected = repairGaps(out)
	return res
}

// dropLowVolume removes bars strictly below the batch 5th-percentile volume
func dropLowVolume(bars []contracts.Bar) ([]contracts.Bar, int) {
	if len(bars) == 0 {
		return bars, 0
	}

	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	threshold := stats.Percentile(volumes, LowVolumePercentile)

	out := make([]contracts.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Volume >= threshold {
			out = append(out, b)
		}
	}
	return out, len(bars) - len(out)
}

// dropReturnOutliers removes bars whose return against the previous bar exceeds
// MaxDailyReturn, repeating until no adjacent pair violates the bound.
// The first bar has no return and is kept.
func dropReturnOutliers(bars []contracts.Bar) ([]contracts.Bar, int) {
	total := 0
	for {
		if len(bars) < 2 {
			return bars, total
		}

		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		returns := stats.Returns(closes)

		out := make([]contracts.Bar, 0, len(bars))
		for i, b := range bars {
			if i > 0 && math.Abs(returns[i]) > MaxDailyReturn {
				continue
			}
			out = append(out, b)
		}

		removed := len(bars) - len(out)
		if removed == 0 {
			return out, total
		}
		total += removed
		bars = out
	}
}

func sortDedupe(bars []contracts.Bar) ([]contracts.Bar, int) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	out := make([]contracts.Bar, 0, len(bars))
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, len(bars) - len(out)
}

// repairGaps reindexes onto the Mon–Fri calendar when few days are missing
func repairGaps(bars []contracts.Bar) (out []contracts.Bar, businessDays, missing, filled int, gapAffected bool) {
	first := bars[0].Date
	last := bars[len(bars)-1].Date

	calendar := BusinessDays(first, last)
	businessDays = len(calendar)
	missing = businessDays - len(bars)
	if missing <= 0 {
		return bars, businessDays, 0, 0, false
	}

	if float64(missing)/float64(businessDays) >= MaxGapRatio {
		return bars, businessDays, missing, 0, true
	}

	out = make([]contracts.Bar, 0, businessDays)
	j := 0
	for _, day := range calendar {
		if j < len(bars) && bars[j].Date.Equal(day) {
			out = append(out, bars[j])
			j++
			continue
		}
		// forward-fill: 직전 영업일 값 그대로
		prev := out[len(out)-1]
		prev.Date = day
		out = append(out, prev)
		filled++
	}
	return out, businessDays, missing, filled, false
}

// BusinessDays lists every Monday–Friday date in [from, to]
func BusinessDays(from, to time.Time) []time.Time {
	from = contracts.DateOnly(from)
	to = contracts.DateOnly(to)

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			days = append(days, d)
		}
	}
	return days
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
