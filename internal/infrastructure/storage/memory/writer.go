package memory

import (
	"slices"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
)

// The methods below load records into the store. They stand in for the
// upstream workflows that own these writes and are used by tests and the
// development seed. Records with a nil ID get a fresh UUIDv7.

// AddProduct stores a product.
func (s *Store) AddProduct(p ledger.Product) ledger.Product {
	ensureID(&p.ID)
	_ = s.mutate(func(st *state) error {
		st.products[p.ID] = p
		return nil
	})
	return p
}

// AddPrice appends a price record.
func (s *Store) AddPrice(r ledger.PriceRecord) ledger.PriceRecord {
	ensureID(&r.ID)
	_ = s.mutate(func(st *state) error {
		st.prices = append(st.prices, r)
		return nil
	})
	return r
}

// AddPurchase appends a purchase record.
func (s *Store) AddPurchase(r ledger.PurchaseRecord) ledger.PurchaseRecord {
	ensureID(&r.ID)
	_ = s.mutate(func(st *state) error {
		st.purchases = append(st.purchases, r)
		return nil
	})
	return r
}

// AddReplenishmentCollection stores a collection together with its records.
func (s *Store) AddReplenishmentCollection(c ledger.ReplenishmentCollection, records ...ledger.ReplenishmentRecord) ledger.ReplenishmentCollection {
	ensureID(&c.ID)
	records = slices.Clone(records)
	for i := range records {
		ensureID(&records[i].ID)
		records[i].CollectionID = c.ID
	}
	_ = s.mutate(func(st *state) error {
		st.replColls[c.ID] = c
		st.replenishments = append(st.replenishments, records...)
		return nil
	})
	return c
}

// AddStocktakingCollection stores a counting session together with its records.
func (s *Store) AddStocktakingCollection(c ledger.StocktakingCollection, records ...ledger.StocktakingRecord) ledger.StocktakingCollection {
	ensureID(&c.ID)
	records = slices.Clone(records)
	for i := range records {
		ensureID(&records[i].ID)
		records[i].CollectionID = c.ID
		records[i].CollectionTimestamp = c.Timestamp
	}
	_ = s.mutate(func(st *state) error {
		st.stockColls[c.ID] = c
		st.stocktakings = append(st.stocktakings, records...)
		return nil
	})
	return c
}

// RevokePurchase flips the revoked flag of a purchase.
func (s *Store) RevokePurchase(purchaseID id.ID) error {
	return s.mutate(func(st *state) error {
		for i := range st.purchases {
			if st.purchases[i].ID == purchaseID {
				st.purchases[i].Revoked = true
				return nil
			}
		}
		return apperror.NewNotFound("purchase", purchaseID)
	})
}

// RevokeReplenishment flips the revoked flag of a single replenishment record.
func (s *Store) RevokeReplenishment(recordID id.ID) error {
	return s.mutate(func(st *state) error {
		for i := range st.replenishments {
			if st.replenishments[i].ID == recordID {
				st.replenishments[i].Revoked = true
				return nil
			}
		}
		return apperror.NewNotFound("replenishment", recordID)
	})
}

// RevokeReplenishmentCollection flips the revoked flag of a replenishment collection.
func (s *Store) RevokeReplenishmentCollection(collectionID id.ID) error {
	return s.mutate(func(st *state) error {
		c, ok := st.replColls[collectionID]
		if !ok {
			return apperror.NewNotFound("replenishment collection", collectionID)
		}
		c.Revoked = true
		st.replColls[collectionID] = c
		return nil
	})
}

// RevokeStocktakingCollection flips the revoked flag of a stocktaking collection.
func (s *Store) RevokeStocktakingCollection(collectionID id.ID) error {
	return s.mutate(func(st *state) error {
		c, ok := st.stockColls[collectionID]
		if !ok {
			return apperror.NewNotFound("stocktaking collection", collectionID)
		}
		c.Revoked = true
		st.stockColls[collectionID] = c
		return nil
	})
}

func ensureID(v *id.ID) {
	if id.IsNil(*v) {
		*v = id.New()
	}
}
