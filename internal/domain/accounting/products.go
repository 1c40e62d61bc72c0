package accounting

import (
	"context"
	"fmt"

	"shopledger/internal/domain/ledger"
)

// CountableProducts lists the products that take part in balances.
// Exports use it to label report rows.
func (s *Service) CountableProducts(ctx context.Context) ([]ledger.Product, error) {
	var products []ledger.Product
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		products, err = s.repo.ListCountableProducts(ctx)
		if err != nil {
			return fmt.Errorf("list countable products: %w", err)
		}
		return nil
	})
	return products, err
}
