package features

import (
	"fmt"

	"github.com/wonny/stockcast/internal/contracts"
)

// Frame is a feature table for one symbol with its column order
type Frame struct {
	Symbol  string
	Columns []string
	Rows    []contracts.FeatureRow
}

// Len returns the number of rows
func (f Frame) Len() int {
	return len(f.Rows)
}

// Matrix returns the rows as feature vectors in column order
func (f Frame) Matrix() ([][]float64, error) {
	return contracts.LookbackWindow{Symbol: f.Symbol, Rows: f.Rows}.Matrix(f.Columns)
}

// Tail returns a frame with at most the last n rows
func (f Frame) Tail(n int) Frame {
	if n >= len(f.Rows) || n < 0 {
		return f
	}
	out := f
	out.Rows = f.Rows[len(f.Rows)-n:]
	return out
}

// DropIncomplete removes warm-up rows with any unavailable value
func (f Frame) DropIncomplete() Frame {
	out := f
	out.Rows = make([]contracts.FeatureRow, 0, len(f.Rows))
	for _, r := range f.Rows {
		if r.IsComplete() {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Builder derives the model feature vector from cleaned bars
// ⭐ SSOT: 백필/일간 경로 모두 이 Builder만 사용 (컬럼 순서 = 모델 계약)
type Builder struct {
	columns []string
}

// NewBuilder creates a builder for the configured feature columns
func NewBuilder(columns []string) *Builder {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Builder{columns: cols}
}

// Columns returns the configured column order
func (b *Builder) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

// Build computes indicators over the full sequence and returns one row per bar.
// Warm-up rows carry NaN; callers drop them with DropIncomplete before persisting.
// A configured column that is not produced fails the whole build.
func (b *Builder) Build(symbol string, bars []contracts.Bar) (Frame, error) {
	if len(b.columns) == 0 {
		return Frame{}, fmt.Errorf("%w: no feature columns configured", contracts.ErrMissingFeature)
	}
	if len(bars) == 0 {
		return Frame{}, contracts.ErrNoData
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	rsi := RSI(closes, RSIPeriod)
	macd, _ := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	vol := RollingStd(closes, VolatilityWindow)

	rows := make([]contracts.FeatureRow, len(bars))
	for i, bar := range bars {
		rows[i] = contracts.FeatureRow{
			Date:          contracts.DateOnly(bar.Date),
			Symbol:        symbol,
			Close:         bar.Close,
			Volume:        bar.Volume,
			RSI14:         rsi[i],
			MACD:          macd[i],
			Volatility20D: vol[i],
		}
	}

	// 설정 컬럼이 모두 생성되었는지 확인 (부분/밀린 벡터 금지)
	for _, col := range b.columns {
		if _, ok := rows[0].Feature(col); !ok {
			return Frame{}, fmt.Errorf("%w: %s", contracts.ErrMissingFeature, col)
		}
	}

	return Frame{Symbol: symbol, Columns: b.Columns(), Rows: rows}, nil
}
