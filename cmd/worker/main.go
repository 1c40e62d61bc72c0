// Package main is the entry point for the shopledger background worker.
// It reconciles every new stocktaking against the previous one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"shopledger/internal/bootstrap"
	"shopledger/pkg/logger"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting shopledger worker")

	app, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "error", err)
	}
	defer app.Close()

	watcher := NewWatcher(app.Service, log, bootstrap.GetEnv("EXPORT_DIR", ""))
	interval := bootstrap.GetEnvDuration("WATCH_INTERVAL", time.Minute)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx, interval)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
