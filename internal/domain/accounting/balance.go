package accounting

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
	"shopledger/pkg/logger"
)

// stockCounts maps product to counted quantity within one collection.
// Products without a record read as zero.
type stockCounts map[id.ID]int64

func countsOf(records []ledger.StocktakingRecord) stockCounts {
	counts := make(stockCounts, len(records))
	for _, r := range records {
		counts[r.ProductID] = r.Count
	}
	return counts
}

func (c stockCounts) of(productID id.ID) int64 {
	return c[productID]
}

// BalanceBetween reconciles every countable product between two stocktaking
// collections.
//
// A nil collection, or the same collection on both sides, yields a nil report:
// there is not enough data to reconcile yet. Purchases and replenishments are
// taken from [start, end) by timestamp.
func (s *Service) BalanceBetween(ctx context.Context, start, end *ledger.StocktakingCollection) (*BalanceReport, error) {
	if start == nil || end == nil || start.ID == end.ID {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "accounting.BalanceBetween",
		trace.WithAttributes(
			attribute.String("stocktaking.start", start.ID.String()),
			attribute.String("stocktaking.end", end.ID.String()),
		))
	defer span.End()

	var report *BalanceReport
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.balance(ctx, start, end)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Info(ctx, "stocktaking balance computed",
		"start_collection", start.ID,
		"end_collection", end.ID,
		"products", len(report.Products),
		"total_balance", report.TotalBalance,
		"profit", report.Profit,
		"loss", report.Loss,
	)
	return report, nil
}

// BalanceBetweenIDs resolves both collections first. Unknown or revoked
// collections yield a nil report.
func (s *Service) BalanceBetweenIDs(ctx context.Context, startID, endID id.ID) (*BalanceReport, error) {
	var report *BalanceReport
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		start, err := s.repo.GetStocktakingCollection(ctx, startID)
		if err != nil {
			return fmt.Errorf("get start collection: %w", err)
		}
		end, err := s.repo.GetStocktakingCollection(ctx, endID)
		if err != nil {
			return fmt.Errorf("get end collection: %w", err)
		}
		report, err = s.BalanceBetween(ctx, start, end)
		return err
	})
	return report, err
}

// LatestBalance reconciles the two most recent non-revoked collections.
// Fewer than two collections yield a nil report.
func (s *Service) LatestBalance(ctx context.Context) (*BalanceReport, error) {
	var report *BalanceReport
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		latest, err := s.repo.ListLatestStocktakingCollections(ctx, 2)
		if err != nil {
			return fmt.Errorf("list latest collections: %w", err)
		}
		if len(latest) < 2 {
			return nil
		}
		report, err = s.BalanceBetween(ctx, &latest[1], &latest[0])
		return err
	})
	return report, err
}

func (s *Service) balance(ctx context.Context, start, end *ledger.StocktakingCollection) (*BalanceReport, error) {
	products, err := s.repo.ListCountableProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countable products: %w", err)
	}

	startRecords, err := s.repo.ListStocktakings(ctx, start.ID)
	if err != nil {
		return nil, fmt.Errorf("list start stocktakings: %w", err)
	}
	endRecords, err := s.repo.ListStocktakings(ctx, end.ID)
	if err != nil {
		return nil, fmt.Errorf("list end stocktakings: %w", err)
	}
	startCounts, endCounts := countsOf(startRecords), countsOf(endRecords)

	window := ledger.HalfOpenWindow(start.Timestamp, end.Timestamp)
	report := &BalanceReport{
		StartCollectionID: start.ID,
		EndCollectionID:   end.ID,
		StartTimestamp:    start.Timestamp,
		EndTimestamp:      end.Timestamp,
		Products:          make(map[id.ID]ProductBalance, len(products)),
	}

	for _, p := range products {
		purchases, err := s.repo.SumPurchases(ctx, p.ID, window)
		if err != nil {
			return nil, fmt.Errorf("sum purchases of %s: %w", p.ID, err)
		}
		replenishments, err := s.repo.SumReplenishments(ctx, p.ID, window)
		if err != nil {
			return nil, fmt.Errorf("sum replenishments of %s: %w", p.ID, err)
		}
		meanPrice, err := s.MeanPriceInRange(ctx, p.ID, start.Timestamp, end.Timestamp)
		if err != nil {
			return nil, err
		}

		report.add(p.ID, reconcile(
			startCounts.of(p.ID), endCounts.of(p.ID),
			purchases, replenishments, meanPrice,
		))
	}

	return report, nil
}

// reconcile computes one product's balance. Difference is what was counted at
// the end minus what bookkeeping predicts; negative means units went missing.
func reconcile(startCount, endCount int64, purchases, replenishments ledger.Totals, meanPrice int64) ProductBalance {
	difference := -(startCount - purchases.Amount + replenishments.Amount - endCount)
	return ProductBalance{
		StartCount:     startCount,
		EndCount:       endCount,
		PurchaseCount:  purchases.Amount,
		PurchaseSum:    purchases.Value,
		ReplenishCount: replenishments.Amount,
		ReplenishSum:   replenishments.Value,
		Difference:     difference,
		Balance:        difference * meanPrice,
	}
}
