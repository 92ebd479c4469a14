package storage

import (
	"context"
	"fmt"

	"github.com/calendarease/core/internal/infrastructure/config"
	"github.com/calendarease/core/internal/infrastructure/database"
	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

// Open connects to the backend selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.KVStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warnw("Using in-memory storage, data will not survive a restart")
		return NewMemoryStore(), nil

	case config.DriverFile:
		store, err := NewFileStore(cfg.Storage.FilePath, log)
		if err != nil {
			return nil, err
		}
		log.Infow("Using file storage", "path", cfg.Storage.FilePath)
		return store, nil

	case config.DriverRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Storage.KeyPrefix), nil

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(db.DB, cfg.Storage.Table)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Infow("Using postgres storage", "host", cfg.Database.Host, "database", cfg.Database.Name, "table", cfg.Storage.Table)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
