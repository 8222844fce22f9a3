package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/stockcast/internal/contracts"
)

// ExportRow is the columnar layout of a stored feature row
type ExportRow struct {
	TradeDate     string  `parquet:"trade_date"`
	Symbol        string  `parquet:"symbol"`
	Close         float64 `parquet:"close"`
	Volume        float64 `parquet:"volume"`
	RSI14         float64 `parquet:"rsi_14"`
	MACD          float64 `parquet:"macd_12_26_9"`
	Volatility20D float64 `parquet:"volatility_20d"`
	QualityScore  float64 `parquet:"quality_score"`
}

// ExportParquet writes every stored row for symbols within [from, to] to one
// Parquet file (training-set snapshot) and returns the row count
func ExportParquet(ctx context.Context, store contracts.FeatureStore, symbols []string, from, to time.Time, path string) (int, error) {
	var out []ExportRow
	for _, symbol := range symbols {
		rows, err := store.FetchRange(ctx, symbol, from, to)
		if err != nil {
			return 0, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		for _, r := range rows {
			out = append(out, ExportRow{
				TradeDate:     r.Date.Format("2006-01-02"),
				Symbol:        r.Symbol,
				Close:         r.Close,
				Volume:        r.Volume,
				RSI14:         r.RSI14,
				MACD:          r.MACD,
				Volatility20D: r.Volatility20D,
				QualityScore:  r.QualityScore,
			})
		}
	}

	if len(out) == 0 {
		return 0, contracts.ErrNoData
	}
	if err := parquet.WriteFile(path, out); err != nil {
		return 0, fmt.Errorf("write parquet %s: %w", path, err)
	}
	return len(out), nil
}
