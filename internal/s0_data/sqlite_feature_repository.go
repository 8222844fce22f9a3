package s0_data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/database"
)

// SQLite stores trade_date as ISO text so ordering and equality stay lexical
const sqliteDateLayout = "2006-01-02"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS feature_rows (
		trade_date     TEXT    NOT NULL,
		symbol         TEXT    NOT NULL,
		close          REAL    NOT NULL,
		volume         REAL    NOT NULL,
		rsi_14         REAL    NOT NULL,
		macd           REAL    NOT NULL,
		volatility_20d REAL    NOT NULL,
		quality_score  REAL    NOT NULL,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL,
		PRIMARY KEY (trade_date, symbol)
	);
	CREATE INDEX IF NOT EXISTS idx_feature_rows_symbol_date ON feature_rows (symbol, trade_date);
`

// SQLiteFeatureStore implements contracts.FeatureStore on an embedded SQLite file
// ⭐ SSOT: 피처 저장소 (단일 노드/개발/테스트)
type SQLiteFeatureStore struct {
	db *sql.DB
}

// OpenSQLiteFeatureStore opens path and creates the schema if missing
func OpenSQLiteFeatureStore(ctx context.Context, path string) (*SQLiteFeatureStore, error) {
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure feature schema: %w", err)
	}
	return &SQLiteFeatureStore{db: db}, nil
}

// Upsert inserts or updates rows in one transaction and returns how many keys were new
func (s *SQLiteFeatureStore) Upsert(ctx context.Context, rows []contracts.FeatureRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feature_rows (`+featureColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (trade_date, symbol) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insertStmt.Close()

	updateStmt, err := tx.PrepareContext(ctx, `
		UPDATE feature_rows SET
			close = ?, volume = ?, rsi_14 = ?, macd = ?,
			volatility_20d = ?, quality_score = ?, updated_at = ?
		WHERE trade_date = ? AND symbol = ?
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare update: %w", err)
	}
	defer updateStmt.Close()

	now := time.Now().Unix()
	inserted := 0
	for _, r := range rows {
		date := contracts.DateOnly(r.Date).Format(sqliteDateLayout)

		res, err := insertStmt.ExecContext(ctx,
			date, r.Symbol, r.Close, r.Volume, r.RSI14, r.MACD, r.Volatility20D, r.QualityScore, now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", r.Symbol, date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		if n == 1 {
			inserted++
			continue
		}

		// 키 충돌: 기존 행 갱신
		if _, err := updateStmt.ExecContext(ctx,
			r.Close, r.Volume, r.RSI14, r.MACD, r.Volatility20D, r.QualityScore, now, date, r.Symbol,
		); err != nil {
			return 0, fmt.Errorf("update %s %s: %w", r.Symbol, date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// FetchLookback returns the n most recent rows for symbol ascending by date
func (s *SQLiteFeatureStore) FetchLookback(ctx context.Context, symbol string, n int) (contracts.LookbackWindow, error) {
	if err := checkLookbackSize(n); err != nil {
		return contracts.LookbackWindow{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+featureColumns+`
		FROM feature_rows
		WHERE symbol = ?
		ORDER BY trade_date DESC
		LIMIT ?
	`, symbol, n)
	if err != nil {
		return contracts.LookbackWindow{}, fmt.Errorf("query lookback for %s: %w", symbol, err)
	}
	defer rows.Close()

	desc, err := collectSQLiteRows(rows)
	if err != nil {
		return contracts.LookbackWindow{}, err
	}
	return lookbackFromDesc(symbol, n, desc)
}

// FetchRange returns rows for symbol within [from, to] ascending by date
func (s *SQLiteFeatureStore) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.FeatureRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+featureColumns+`
		FROM feature_rows
		WHERE symbol = ? AND trade_date BETWEEN ? AND ?
		ORDER BY trade_date ASC
	`, symbol, from.Format(sqliteDateLayout), to.Format(sqliteDateLayout))
	if err != nil {
		return nil, fmt.Errorf("query range for %s: %w", symbol, err)
	}
	defer rows.Close()

	return collectSQLiteRows(rows)
}

// LatestRecord returns the most recently dated row across all symbols
func (s *SQLiteFeatureStore) LatestRecord(ctx context.Context) (*contracts.FeatureRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+featureColumns+`
		FROM feature_rows
		ORDER BY trade_date DESC, updated_at DESC
		LIMIT 1
	`)

	r, err := scanSQLiteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("query latest record: %w", err)
	}
	return &r, nil
}

// SymbolStats returns per-symbol counts, coverage and mean quality
func (s *SQLiteFeatureStore) SymbolStats(ctx context.Context) ([]contracts.SymbolStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, COUNT(*), MIN(trade_date), MAX(trade_date), AVG(quality_score)
		FROM feature_rows
		GROUP BY symbol
		ORDER BY COUNT(*) DESC, symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query symbol stats: %w", err)
	}
	defer rows.Close()

	var out []contracts.SymbolStats
	for rows.Next() {
		var st contracts.SymbolStats
		var first, last string
		if err := rows.Scan(&st.Symbol, &st.Count, &first, &last, &st.AvgQualityScore); err != nil {
			return nil, fmt.Errorf("scan symbol stats: %w", err)
		}
		if st.FirstDate, err = time.Parse(sqliteDateLayout, first); err != nil {
			return nil, fmt.Errorf("parse first date %q: %w", first, err)
		}
		if st.LastDate, err = time.Parse(sqliteDateLayout, last); err != nil {
			return nil, fmt.Errorf("parse last date %q: %w", last, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// HealthCheck pings the database file
func (s *SQLiteFeatureStore) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return database.SQLiteHealthCheck(ctx, s.db)
}

// Close closes the database handle
func (s *SQLiteFeatureStore) Close() error {
	return s.db.Close()
}

func scanSQLiteRow(row rowScanner) (contracts.FeatureRow, error) {
	var r contracts.FeatureRow
	var date string
	if err := row.Scan(&date, &r.Symbol, &r.Close, &r.Volume, &r.RSI14, &r.MACD, &r.Volatility20D, &r.QualityScore); err != nil {
		return r, err
	}

	parsed, err := time.Parse(sqliteDateLayout, date)
	if err != nil {
		return r, fmt.Errorf("parse trade_date %q: %w", date, err)
	}
	r.Date = parsed
	return r, nil
}

func collectSQLiteRows(rows *sql.Rows) ([]contracts.FeatureRow, error) {
	var out []contracts.FeatureRow
	for rows.Next() {
		r, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
