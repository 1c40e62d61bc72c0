package accounting

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
)

// PurchaseAmountInInterval returns the number of units sold in [start, end].
// Revoked purchases are ignored. No matching purchase yields 0.
func (s *Service) PurchaseAmountInInterval(ctx context.Context, productID id.ID, start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, apperror.NewInvalidInterval(start, end)
	}

	var amount int64
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		totals, err := s.repo.SumPurchases(ctx, productID, ledger.ClosedWindow(start, end))
		if err != nil {
			return fmt.Errorf("sum purchases: %w", err)
		}
		amount = totals.Amount
		return nil
	})
	return amount, err
}

// ReplenishmentAmountInInterval returns the number of units restocked in [start, end].
// The collection timestamp decides membership; a record counts only when it
// and its collection are both non-revoked.
func (s *Service) ReplenishmentAmountInInterval(ctx context.Context, productID id.ID, start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, apperror.NewInvalidInterval(start, end)
	}

	var amount int64
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		totals, err := s.repo.SumReplenishments(ctx, productID, ledger.ClosedWindow(start, end))
		if err != nil {
			return fmt.Errorf("sum replenishments: %w", err)
		}
		amount = totals.Amount
		return nil
	})
	return amount, err
}
