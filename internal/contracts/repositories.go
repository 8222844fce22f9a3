package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// FeatureStore persists feature rows keyed by (date, symbol)
type FeatureStore interface {
	// Upsert inserts or updates each row and returns how many keys were new
	Upsert(ctx context.Context, rows []FeatureRow) (int, error)

	// FetchLookback returns the n most recent rows ascending by date,
	// or *InsufficientDataError when fewer than n exist
	FetchLookback(ctx context.Context, symbol string, n int) (LookbackWindow, error)

	// FetchRange returns rows for a symbol within [from, to] ascending by date
	FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]FeatureRow, error)

	// LatestRecord returns the most recently dated row across all symbols
	LatestRecord(ctx context.Context) (*FeatureRow, error)

	// SymbolStats returns per-symbol row counts and coverage
	SymbolStats(ctx context.Context) ([]SymbolStats, error)

	Close() error
}

// SymbolStats summarizes what is stored for one symbol
type SymbolStats struct {
	Symbol          string    `json:"symbol"`
	Count           int       `json:"count"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
	AvgQualityScore float64   `json:"avg_quality_score"`
}

// MarketDataSource returns raw daily bars for a date range
type MarketDataSource interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}
