package accounting

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
	"shopledger/pkg/logger"
)

// TheoreticalStock returns how many units of a product should exist right now
// according to bookkeeping.
func (s *Service) TheoreticalStock(ctx context.Context, productID id.ID) (int64, error) {
	return s.TheoreticalStockAt(ctx, productID, s.now())
}

// TheoreticalStockAt returns the bookkept stock of a product at the given instant:
// the latest count taken at or before that instant, minus purchases, plus
// replenishments since that count.
// Without any count the whole history is accounted from zero.
// The result is not clamped; a negative value signals inconsistent data.
func (s *Service) TheoreticalStockAt(ctx context.Context, productID id.ID, at time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "accounting.TheoreticalStock",
		trace.WithAttributes(attribute.String("product.id", productID.String())))
	defer span.End()

	var stock int64
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetProduct(ctx, productID); err != nil {
			return err
		}

		latest, err := s.repo.GetLatestStocktakingOfProductAtOrBefore(ctx, productID, at)
		if err != nil {
			return fmt.Errorf("get latest stocktaking of product: %w", err)
		}

		var baseline int64
		var start time.Time
		if latest != nil {
			baseline = latest.Count
			start = latest.CollectionTimestamp
		}

		window := ledger.ClosedWindow(start, at)
		purchased, err := s.repo.SumPurchases(ctx, productID, window)
		if err != nil {
			return fmt.Errorf("sum purchases: %w", err)
		}
		replenished, err := s.repo.SumReplenishments(ctx, productID, window)
		if err != nil {
			return fmt.Errorf("sum replenishments: %w", err)
		}

		stock = baseline - purchased.Amount + replenished.Amount

		logger.Debug(ctx, "theoretical stock computed",
			"product_id", productID,
			"baseline", baseline,
			"purchased", purchased.Amount,
			"replenished", replenished.Amount,
			"stock", stock,
		)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return stock, nil
}
