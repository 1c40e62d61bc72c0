package bootstrap

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/storage/memory"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/ledger_repo"
	"shopledger/pkg/logger"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// App is the assembled accounting service and the store behind it.
type App struct {
	Service   *accounting.Service
	StoreName string

	// Pinger is nil for the in-memory store
	Pinger handlers.Pinger

	// Pool is nil for the in-memory store
	Pool *postgres.Pool
}

// Close releases the store.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// Open connects the store selected by cfg and builds the service on it.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	opts := []accounting.Option{accounting.WithLocation(cfg.Location)}

	if cfg.DatabaseURL == "" {
		store := memory.NewStore()
		if cfg.SeedDemo {
			ledger.SeedDemo(store, time.Now())
			log.Info("in-memory store seeded with demo ledger")
		}
		log.Warn("DATABASE_URL not set, using in-memory store")
		return &App{
			Service:   accounting.NewService(store, store, opts...),
			StoreName: StoreMemory,
		}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBMinConns > 0 {
		poolCfg.MinConns = int32(cfg.DBMinConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	log.Infow("database connection established",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
	)

	txm := postgres.NewTxManager(pool, cfg.StatementTimeout)
	repo := ledger_repo.NewLedgerRepo(txm)

	return &App{
		Service:   accounting.NewService(repo, txm, opts...),
		StoreName: StorePostgres,
		Pinger:    pool,
		Pool:      pool,
	}, nil
}
