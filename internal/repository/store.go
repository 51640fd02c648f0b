package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"game-lobby-server/internal/config"
	"game-lobby-server/internal/model"
	"game-lobby-server/internal/pkg/db"
)

// VirtualBotStore is implemented by every virtual bot backend.
type VirtualBotStore interface {
	SaveVirtualBot(ctx context.Context, row model.VirtualBotRow) error
	GetVirtualBot(ctx context.Context, name string) (*model.VirtualBotRow, error)
	LoadAllVirtualBots(ctx context.Context) ([]model.VirtualBotRow, error)
	DeleteAllVirtualBots(ctx context.Context) error
	Close() error
}

// NewVirtualBotStore opens the backend selected by cfg.Storage.Driver.
func NewVirtualBotStore(ctx context.Context, cfg *config.Config) (VirtualBotStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory virtual bot store, state will not survive restarts")
		return NewMemoryVirtualBotStore(), nil

	case config.StorageSQLite, "":
		sqlDB, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLiteVirtualBotStore(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return store, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		repo := NewVirtualBotRepository(pool.Pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// now is the updated_at stamp used by the stores that set it themselves.
func now() time.Time {
	return time.Now().UTC()
}
