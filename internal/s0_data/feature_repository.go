package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/database"
)

// PostgresSchema creates the feature table; (trade_date, symbol) uniqueness is
// enforced by the primary key so concurrent writers cannot duplicate rows.
const PostgresSchema = `
	CREATE SCHEMA IF NOT EXISTS data;

	CREATE TABLE IF NOT EXISTS data.feature_rows (
		trade_date     DATE             NOT NULL,
		symbol         TEXT             NOT NULL,
		close          DOUBLE PRECISION NOT NULL,
		volume         DOUBLE PRECISION NOT NULL,
		rsi_14         DOUBLE PRECISION NOT NULL,
		macd           DOUBLE PRECISION NOT NULL,
		volatility_20d DOUBLE PRECISION NOT NULL,
		quality_score  DOUBLE PRECISION NOT NULL,
		created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (trade_date, symbol)
	);

	CREATE INDEX IF NOT EXISTS idx_feature_rows_symbol_date
		ON data.feature_rows (symbol, trade_date DESC);
`

const featureColumns = `trade_date, symbol, close, volume, rsi_14, macd, volatility_20d, quality_score`

// PostgresFeatureStore implements contracts.FeatureStore on pgx
// ⭐ SSOT: 피처 저장소 (운영)
type PostgresFeatureStore struct {
	db   *database.DB
	pool *pgxpool.Pool
}

// NewPostgresFeatureStore wraps an open connection pool
func NewPostgresFeatureStore(db *database.DB) *PostgresFeatureStore {
	return &PostgresFeatureStore{db: db, pool: db.Pool}
}

// EnsureSchema creates the table and index if missing
func (s *PostgresFeatureStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("ensure feature schema: %w", err)
	}
	return nil
}

// Upsert inserts or updates rows in one transaction and returns how many keys were new
func (s *PostgresFeatureStore) Upsert(ctx context.Context, rows []contracts.FeatureRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	// xmax = 0 → 새로 삽입된 행 (충돌 후 UPDATE 된 행은 xmax != 0)
	query := `
		INSERT INTO data.feature_rows (` + featureColumns + `, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (trade_date, symbol) DO UPDATE SET
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			rsi_14 = EXCLUDED.rsi_14,
			macd = EXCLUDED.macd,
			volatility_20d = EXCLUDED.volatility_20d,
			quality_score = EXCLUDED.quality_score,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, r := range rows {
		var isNew bool
		err := tx.QueryRow(ctx, query,
			contracts.DateOnly(r.Date), r.Symbol, r.Close, r.Volume,
			r.RSI14, r.MACD, r.Volatility20D, r.QualityScore,
		).Scan(&isNew)
		if err != nil {
			return 0, fmt.Errorf("upsert %s %s: %w", r.Symbol, r.Date.Format("2006-01-02"), err)
		}
		if isNew {
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// FetchLookback returns the n most recent rows for symbol ascending by date
func (s *PostgresFeatureStore) FetchLookback(ctx context.Context, symbol string, n int) (contracts.LookbackWindow, error) {
	if err := checkLookbackSize(n); err != nil {
		return contracts.LookbackWindow{}, err
	}
	query := `
		SELECT ` + featureColumns + `
		FROM data.feature_rows
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, symbol, n)
	if err != nil {
		return contracts.LookbackWindow{}, fmt.Errorf("query lookback for %s: %w", symbol, err)
	}
	defer rows.Close()

	desc, err := collectRows(rows, rows.Err)
	if err != nil {
		return contracts.LookbackWindow{}, err
	}
	return lookbackFromDesc(symbol, n, desc)
}

// FetchRange returns rows for symbol within [from, to] ascending by date
func (s *PostgresFeatureStore) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.FeatureRow, error) {
	query := `
		SELECT ` + featureColumns + `
		FROM data.feature_rows
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, contracts.DateOnly(from), contracts.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("query range for %s: %w", symbol, err)
	}
	defer rows.Close()

	return collectRows(rows, rows.Err)
}

// LatestRecord returns the most recently dated row across all symbols
func (s *PostgresFeatureStore) LatestRecord(ctx context.Context) (*contracts.FeatureRow, error) {
	query := `
		SELECT ` + featureColumns + `
		FROM data.feature_rows
		ORDER BY trade_date DESC, updated_at DESC
		LIMIT 1
	`

	r, err := scanFeatureRow(s.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("query latest record: %w", err)
	}
	return &r, nil
}

// SymbolStats returns per-symbol counts, coverage and mean quality
func (s *PostgresFeatureStore) SymbolStats(ctx context.Context) ([]contracts.SymbolStats, error) {
	query := `
		SELECT symbol, COUNT(*), MIN(trade_date), MAX(trade_date), AVG(quality_score)
		FROM data.feature_rows
		GROUP BY symbol
		ORDER BY COUNT(*) DESC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query symbol stats: %w", err)
	}
	defer rows.Close()

	var out []contracts.SymbolStats
	for rows.Next() {
		var st contracts.SymbolStats
		if err := rows.Scan(&st.Symbol, &st.Count, &st.FirstDate, &st.LastDate, &st.AvgQualityScore); err != nil {
			return nil, fmt.Errorf("scan symbol stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// HealthCheck reports pool health
func (s *PostgresFeatureStore) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return s.db.HealthCheck(ctx)
}

// Close releases the connection pool
func (s *PostgresFeatureStore) Close() error {
	s.db.Close()
	return nil
}

// Shared scan helpers (pgx.Row, pgx.Rows and *sql.Rows all expose Scan)

type rowScanner interface {
	Scan(dest ...any) error
}

type rowIterator interface {
	rowScanner
	Next() bool
}

func scanFeatureRow(row rowScanner) (contracts.FeatureRow, error) {
	var r contracts.FeatureRow
	err := row.Scan(&r.Date, &r.Symbol, &r.Close, &r.Volume, &r.RSI14, &r.MACD, &r.Volatility20D, &r.QualityScore)
	r.Date = contracts.DateOnly(r.Date)
	return r, err
}

func collectRows(rows rowIterator, errFn func() error) ([]contracts.FeatureRow, error) {
	var out []contracts.FeatureRow
	for rows.Next() {
		r, err := scanFeatureRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, r)
	}
	return out, errFn()
}

// lookbackFromDesc reverses a newest-first result into an ascending window
// and enforces the fixed window length.
// SQL LIMIT 는 음수를 "제한 없음"으로 해석하므로 먼저 거부
func checkLookbackSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("lookback size must be positive, got %d", n)
	}
	return nil
}

func lookbackFromDesc(symbol string, n int, desc []contracts.FeatureRow) (contracts.LookbackWindow, error) {
	if len(desc) < n {
		return contracts.LookbackWindow{}, &contracts.InsufficientDataError{
			Symbol:   symbol,
			Found:    len(desc),
			Required: n,
		}
	}

	asc := make([]contracts.FeatureRow, len(desc))
	for i, r := range desc {
		asc[len(desc)-1-i] = r
	}

	window := contracts.LookbackWindow{Symbol: symbol, Rows: asc}
	if err := window.Validate(); err != nil {
		return contracts.LookbackWindow{}, err
	}
	return window, nil
}
