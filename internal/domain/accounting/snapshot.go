package accounting

import (
	"context"
	"fmt"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
)

// LatestNonRevokedStocktakingCollection returns the newest counting session
// that is still valid, or nil if there is none.
func (s *Service) LatestNonRevokedStocktakingCollection(ctx context.Context) (*ledger.StocktakingCollection, error) {
	var latest *ledger.StocktakingCollection
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetLatestStocktakingCollection(ctx)
		if err != nil {
			return fmt.Errorf("get latest stocktaking collection: %w", err)
		}
		latest = c
		return nil
	})
	return latest, err
}

// LatestStocktakingOfProduct returns the newest count of a product from a
// non-revoked collection, or nil if the product was never counted.
func (s *Service) LatestStocktakingOfProduct(ctx context.Context, productID id.ID) (*ledger.StocktakingRecord, error) {
	var latest *ledger.StocktakingRecord
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetLatestStocktakingOfProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("get latest stocktaking of product: %w", err)
		}
		latest = r
		return nil
	})
	return latest, err
}
