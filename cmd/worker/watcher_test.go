package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/tx"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/storage/memory"
	"shopledger/pkg/logger"
)

func TestWatcher_ReconcilesEachNewStocktakingOnce(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	p := store.AddProduct(ledger.Product{Name: "Coffee", Active: true, Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 300, Timestamp: t0.AddDate(0, -1, 0)})
	store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 100})

	dir := t.TempDir()
	w := NewWatcher(accounting.NewService(store, store), logger.NewNop(), dir)

	report, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, report, "a single stocktaking has nothing to reconcile")

	store.AddPurchase(ledger.PurchaseRecord{ProductID: p.ID, Amount: 10, Price: 300, Timestamp: t0.AddDate(0, 0, 1)})
	end := store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0.AddDate(0, 0, 7)},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 88})

	report, err = w.Check(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, end.ID, report.EndCollectionID)
	assert.Equal(t, int64(-600), report.TotalBalance)

	_, err = os.Stat(filepath.Join(dir, "balance_20240304_20240311.xlsx"))
	assert.NoError(t, err)

	report, err = w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, report, "unchanged stocktaking is not reconciled twice")
}

func TestWatcher_CountLandingBetweenReads(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	p := store.AddProduct(ledger.Product{Name: "Coffee", Active: true, Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 300, Timestamp: t0.AddDate(0, -1, 0)})
	store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 100})
	store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0.AddDate(0, 0, 7)},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 90})

	// The first top-level snapshot is the latest-collection lookup; a new
	// count is recorded right after it, before the balance is read.
	var late ledger.StocktakingCollection
	snapshots := 0
	txm := tx.ReadOnlyFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		err := store.ReadOnly(ctx, fn)
		snapshots++
		if snapshots == 1 {
			late = store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0.AddDate(0, 0, 14)},
				ledger.StocktakingRecord{ProductID: p.ID, Count: 80})
		}
		return err
	})

	w := NewWatcher(accounting.NewService(store, txm), logger.NewNop(), "")

	report, err := w.Check(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, late.ID, report.EndCollectionID)

	report, err = w.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, report, "the pair already reconciled is not reported again")
}
