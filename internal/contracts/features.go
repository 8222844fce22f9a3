package contracts

import (
	"fmt"
	"math"
	"time"
)

// Feature column names
// ⭐ SSOT: 모델 입력 컬럼 이름은 여기서만 정의
const (
	FeatureClose      = "Close"
	FeatureVolume     = "Volume"
	FeatureRSI14      = "RSI_14"
	FeatureMACD       = "MACD_12_26_9"
	FeatureVolatility = "volatility_20d"
)

// DefaultFeatures is the column order the forecasting model was trained on
func DefaultFeatures() []string {
	return []string{FeatureClose, FeatureVolume, FeatureRSI14, FeatureMACD, FeatureVolatility}
}

// DefaultTargetFeature is the column the model predicts
const DefaultTargetFeature = FeatureClose

// Bar is one trading day for one symbol
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsPositive reports whether every price/volume field is strictly positive
func (b Bar) IsPositive() bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.Volume > 0
}

// FeatureRow is the persisted feature vector for (date, symbol)
// Warm-up values are NaN until DropIncomplete removes the row.
type FeatureRow struct {
	Date          time.Time `json:"date"`
	Symbol        string    `json:"symbol"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	RSI14         float64   `json:"rsi_14"`
	MACD          float64   `json:"macd"`
	Volatility20D float64   `json:"volatility_20d"`
	QualityScore  float64   `json:"quality_score"`
}

// Feature returns a single feature value by column name
func (r FeatureRow) Feature(name string) (float64, bool) {
	switch name {
	case FeatureClose:
		return r.Close, true
	case FeatureVolume:
		return r.Volume, true
	case FeatureRSI14:
		return r.RSI14, true
	case FeatureMACD:
		return r.MACD, true
	case FeatureVolatility:
		return r.Volatility20D, true
	default:
		return 0, false
	}
}

// SetFeature assigns a feature value by column name
func (r *FeatureRow) SetFeature(name string, v float64) bool {
	switch name {
	case FeatureClose:
		r.Close = v
	case FeatureVolume:
		r.Volume = v
	case FeatureRSI14:
		r.RSI14 = v
	case FeatureMACD:
		r.MACD = v
	case FeatureVolatility:
		r.Volatility20D = v
	default:
		return false
	}
	return true
}

// Values returns the feature vector in the given column order
func (r FeatureRow) Values(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := r.Feature(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		out[i] = v
	}
	return out, nil
}

// IsComplete reports whether all feature values are available
func (r FeatureRow) IsComplete() bool {
	for _, v := range []float64{r.Close, r.Volume, r.RSI14, r.MACD, r.Volatility20D} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LookbackWindow is the fixed-length trailing history fed to the model
type LookbackWindow struct {
	Symbol string
	Rows   []FeatureRow
}

// Len returns the number of rows in the window
func (w LookbackWindow) Len() int {
	return len(w.Rows)
}

// LastDate returns the date of the most recent row
func (w LookbackWindow) LastDate() time.Time {
	if len(w.Rows) == 0 {
		return time.Time{}
	}
	return w.Rows[len(w.Rows)-1].Date
}

// Validate checks strict date ordering with no duplicates
func (w LookbackWindow) Validate() error {
	for i := 1; i < len(w.Rows); i++ {
		if !w.Rows[i].Date.After(w.Rows[i-1].Date) {
			return fmt.Errorf("lookback window for %s not strictly increasing at %s",
				w.Symbol, w.Rows[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Matrix returns the window as rows of feature vectors in column order
func (w LookbackWindow) Matrix(names []string) ([][]float64, error) {
	out := make([][]float64, len(w.Rows))
	for i, row := range w.Rows {
		v, err := row.Values(names)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DateOnly truncates a timestamp to its calendar day in UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
