package s0_data

import (
	"context"
	"fmt"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/config"
	"github.com/wonny/stockcast/pkg/database"
)

// OpenFeatureStore opens the configured store backend and ensures its schema
// ⭐ SSOT: STORE_DRIVER 분기는 여기서만
func OpenFeatureStore(ctx context.Context, cfg *config.Config) (contracts.FeatureStore, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewPostgresFeatureStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case "sqlite":
		return OpenSQLiteFeatureStore(ctx, cfg.Database.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Database.Driver)
	}
}
