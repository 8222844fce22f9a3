package contracts

import "time"

// DataQualityReport summarizes stored feature history across symbols
// ⭐ SSOT: 저장 데이터 품질 리포트 포맷
type DataQualityReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Lookback    int           `json:"lookback"`
	Symbols     []SymbolStats `json:"symbols"`
}

// TotalRecords returns the number of stored rows across all symbols
func (d *DataQualityReport) TotalRecords() int {
	total := 0
	for _, s := range d.Symbols {
		total += s.Count
	}
	return total
}

// AverageQuality returns the row-weighted mean quality score
func (d *DataQualityReport) AverageQuality() float64 {
	total := d.TotalRecords()
	if total == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range d.Symbols {
		sum += s.AvgQualityScore * float64(s.Count)
	}
	return sum / float64(total)
}

// ReadySymbols returns symbols with at least a full lookback window stored
func (d *DataQualityReport) ReadySymbols() []string {
	var ready []string
	for _, s := range d.Symbols {
		if s.Count >= d.Lookback {
			ready = append(ready, s.Symbol)
		}
	}
	return ready
}

// FreshnessDays returns how many calendar days old a symbol's latest row is
func FreshnessDays(last, now time.Time) int {
	return int(DateOnly(now).Sub(DateOnly(last)).Hours() / 24)
}
