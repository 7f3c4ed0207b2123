// Package app wires configuration into concrete dependencies shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/postgres"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// OpenStore opens the storage backend selected by cfg.Storage.Driver.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.New(cfg.Storage.SQLitePath)
	case "postgres":
		pg := cfg.PostgreSQL
		return postgres.New(ctx, postgres.Config{
			Host:         pg.Host,
			Port:         pg.Port,
			User:         pg.User,
			Password:     pg.Password,
			DBName:       pg.DBName,
			Schema:       pg.Schema,
			PoolMaxConns: pg.PoolMaxConns,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
