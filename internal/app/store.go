package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/bootstrap"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/config"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

// openBackend builds the configured document backend. db is the migrated
// handle for the SQL drivers and nil otherwise.
func openBackend(ctx context.Context, cfg config.StorageConfig, db *sqlx.DB) (storage.Backend, error) {
	switch cfg.Driver {
	case config.StorageFile:
		return storage.NewFile(cfg.Path), nil
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b, err := storage.NewRedis(ctx, &storage.RedisConfig{RedisClient: client, Key: cfg.Redis.Key})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return b, nil
	case config.StoragePostgres, config.StorageSQLite:
		if db == nil {
			return nil, fmt.Errorf("storage driver %s needs a database connection", cfg.Driver)
		}
		return storage.NewSQL(db)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// seed imports the legacy JSON file into an empty shared backend.
func seed(ctx context.Context, cfg config.StorageConfig, backend storage.Backend) error {
	if cfg.ImportPath == "" || cfg.Driver == config.StorageFile || cfg.Driver == config.StorageMemory {
		return nil
	}
	return bootstrap.RunSeeders(ctx, storage.ImportSeeder{Path: cfg.ImportPath, Backend: backend})
}
