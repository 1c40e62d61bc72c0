package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/infrastructure/export"
	"shopledger/pkg/logger"
)

// Watcher polls for the latest stocktaking and reconciles it against the
// previous one whenever it changes.
type Watcher struct {
	service   *accounting.Service
	log       *logger.Logger
	exportDir string

	lastSeen id.ID
}

// NewWatcher creates a watcher. An empty exportDir only logs the reports.
func NewWatcher(service *accounting.Service, log *logger.Logger, exportDir string) *Watcher {
	return &Watcher{
		service:   service,
		log:       log.WithComponent("watcher"),
		exportDir: exportDir,
	}
}

// Run checks once immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if _, err := w.Check(ctx); err != nil {
		w.log.Errorw("reconciliation failed", "error", err)
	}
}

// Check returns the balance of the two latest stocktakings when the latest
// one has not been seen before, and nil otherwise.
func (w *Watcher) Check(ctx context.Context) (*accounting.BalanceReport, error) {
	latest, err := w.service.LatestNonRevokedStocktakingCollection(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.ID == w.lastSeen {
		return nil, nil
	}

	report, err := w.service.LatestBalance(ctx)
	if err != nil {
		return nil, err
	}
	if report == nil {
		w.lastSeen = latest.ID
		w.log.Infow("first stocktaking recorded, nothing to reconcile yet", "collection", latest.ID)
		return nil, nil
	}
	// LatestBalance reads its own snapshot and may already see a newer count.
	w.lastSeen = report.EndCollectionID

	w.log.Infow("new stocktaking reconciled",
		"start_collection", report.StartCollectionID,
		"end_collection", report.EndCollectionID,
		"total_balance", report.TotalBalance,
		"profit", report.Profit,
		"loss", report.Loss,
	)

	if w.exportDir != "" {
		path, err := w.export(ctx, report)
		if err != nil {
			return report, err
		}
		w.log.Infow("balance exported", "path", path)
	}
	return report, nil
}

func (w *Watcher) export(ctx context.Context, report *accounting.BalanceReport) (string, error) {
	products, err := w.service.CountableProducts(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.exportDir, export.BalanceFilename(report))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := export.WriteBalanceXLSX(f, report, products); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
