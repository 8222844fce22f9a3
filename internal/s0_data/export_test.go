package s0_data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/internal/contracts"
)

func TestExportParquet(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, err := store.Upsert(ctx, featureRows("TCS.NS", 10))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, featureRows("INFY.NS", 4))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "features.parquet")
	from := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	n, err := ExportParquet(ctx, store, []string{"TCS.NS", "INFY.NS"}, from, to, path)
	require.NoError(t, err)
	assert.Equal(t, 8+2, n)

	got, err := parquet.ReadFile[ExportRow](path)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "2024-01-03", got[0].TradeDate)
	assert.Equal(t, "TCS.NS", got[0].Symbol)
	assert.Equal(t, "INFY.NS", got[9].Symbol)
	assert.Equal(t, 102.0, got[0].Close)
}

func TestExportParquet_NoRows(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := ExportParquet(context.Background(), store, []string{"TCS.NS"}, time.Now().AddDate(0, -1, 0), time.Now(), filepath.Join(t.TempDir(), "x.parquet"))
	assert.ErrorIs(t, err, contracts.ErrNoData)
}
