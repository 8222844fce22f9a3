package features

import (
	"fmt"
	"math"

	"github.com/wonny/stockcast/internal/contracts"
)

// Plausible value ranges for persisted rows
const (
	MinRSI           = 0.0
	MaxRSI           = 100.0
	MaxVolatility20D = 1.0 // 일간 수익률 표준편차 100% 이상은 비정상
)

// Violation describes one row that failed validation
type Violation struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Field  string  `json:"field"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s %s=%v: %s", v.Symbol, v.Date, v.Field, v.Value, v.Reason)
}

// Validate bounds-checks each row and splits valid rows from violations
func Validate(rows []contracts.FeatureRow) ([]contracts.FeatureRow, []Violation) {
	valid := make([]contracts.FeatureRow, 0, len(rows))
	var violations []Violation

	for _, r := range rows {
		if v, ok := checkRow(r); !ok {
			violations = append(violations, v)
			continue
		}
		valid = append(valid, r)
	}
	return valid, violations
}

func checkRow(r contracts.FeatureRow) (Violation, bool) {
	fail := func(field string, value float64, reason string) (Violation, bool) {
		return Violation{
			Date:   r.Date.Format("2006-01-02"),
			Symbol: r.Symbol,
			Field:  field,
			Value:  value,
			Reason: reason,
		}, false
	}

	switch {
	case !finite(r.Close) || r.Close <= 0:
		return fail(contracts.FeatureClose, r.Close, "must be positive")
	case !finite(r.Volume) || r.Volume <= 0:
		return fail(contracts.FeatureVolume, r.Volume, "must be positive")
	case !finite(r.RSI14) || r.RSI14 < MinRSI || r.RSI14 > MaxRSI:
		return fail(contracts.FeatureRSI14, r.RSI14, "must be within [0, 100]")
	case !finite(r.MACD):
		return fail(contracts.FeatureMACD, r.MACD, "must be finite")
	case !finite(r.Volatility20D) || r.Volatility20D < 0 || r.Volatility20D >= MaxVolatility20D:
		return fail(contracts.FeatureVolatility, r.Volatility20D, "must be within [0, 1)")
	}
	return Violation{}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
