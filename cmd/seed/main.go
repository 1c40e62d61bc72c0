// Package main provides a CLI tool that creates the ledger schema and,
// optionally, seeds a demo ledger into PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shopledger/internal/bootstrap"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/ledger_repo"
	"shopledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if cfg.SeedDemo {
		w := ledger_repo.NewBatchWriter()
		ledger.SeedDemo(w, time.Now())
		statements := w.Len()
		if err := w.Flush(ctx, pool); err != nil {
			log.Fatalw("failed to seed demo ledger", "error", err)
		}
		log.Infow("demo ledger seeded", "statements", statements)
	}

	log.Info("seeding completed successfully")
}
