package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	mongorepo "github.com/ArowuTest/loyaltybot-backend/internal/repositories/mongodb"
	sqliterepo "github.com/ArowuTest/loyaltybot-backend/internal/repositories/sqlite"
	"github.com/ArowuTest/loyaltybot-backend/pkg/mongodb"
	"github.com/ArowuTest/loyaltybot-backend/pkg/sqlite"
)

// Open connects to the configured backend and prepares its schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repositories.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.NewClient(cfg.SQLitePath, sqlite.DefaultOptions())
		if err != nil {
			return nil, err
		}
		store := sqliterepo.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("Connected to SQLite", zap.String("path", cfg.SQLitePath))
		return store, nil

	case config.DriverMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		store := mongorepo.NewStore(client.Raw(), client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
