package ledger

import (
	"context"
	"time"

	"shopledger/internal/core/id"
)

// Repository defines the read-only queries the accounting engine needs.
//
// Lookups of single optional records return (nil, nil) when nothing matches.
// Only GetProduct reports absence as an error (apperror.CodeNotFound).
type Repository interface {
	// Products

	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	ListCountableProducts(ctx context.Context) ([]Product, error)

	// Price history

	// GetLatestPrice returns the current price record of a product
	GetLatestPrice(ctx context.Context, productID id.ID) (*PriceRecord, error)

	// GetLatestPriceAtOrBefore returns the last record with timestamp <= at
	GetLatestPriceAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*PriceRecord, error)

	// ListPricesBetween returns records with from < timestamp < to, ordered by timestamp, id
	ListPricesBetween(ctx context.Context, productID id.ID, from, to time.Time) ([]PriceRecord, error)

	// Aggregates

	// SumPurchases sums non-revoked purchases inside the window
	SumPurchases(ctx context.Context, productID id.ID, w Window) (Totals, error)

	// SumReplenishments sums replenishments whose record and collection are
	// non-revoked and whose collection timestamp is inside the window
	SumReplenishments(ctx context.Context, productID id.ID, w Window) (Totals, error)

	// Stocktakings

	GetLatestStocktakingCollection(ctx context.Context) (*StocktakingCollection, error)

	// ListLatestStocktakingCollections returns up to limit non-revoked collections, newest first
	ListLatestStocktakingCollections(ctx context.Context, limit int) ([]StocktakingCollection, error)

	// GetStocktakingCollection returns a non-revoked collection by id
	GetStocktakingCollection(ctx context.Context, collectionID id.ID) (*StocktakingCollection, error)

	// GetLatestStocktakingOfProduct returns the newest record whose collection is non-revoked
	GetLatestStocktakingOfProduct(ctx context.Context, productID id.ID) (*StocktakingRecord, error)

	// GetLatestStocktakingOfProductAtOrBefore also requires the collection timestamp <= at
	GetLatestStocktakingOfProductAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*StocktakingRecord, error)

	ListStocktakings(ctx context.Context, collectionID id.ID) ([]StocktakingRecord, error)
}

// Totals is the result of summing purchases or replenishments.
// Value is amount*price for purchases and total_price for replenishments.
type Totals struct {
	Amount int64 `db:"amount" json:"amount"`
	Value  int64 `db:"value" json:"value"`
}

// Window is a time range with an inclusive lower bound.
// The upper bound is inclusive unless OpenEnd is set.
type Window struct {
	From    time.Time
	To      time.Time
	OpenEnd bool
}

// ClosedWindow returns [from, to].
func ClosedWindow(from, to time.Time) Window {
	return Window{From: from, To: to}
}

// HalfOpenWindow returns [from, to).
func HalfOpenWindow(from, to time.Time) Window {
	return Window{From: from, To: to, OpenEnd: true}
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	if w.OpenEnd {
		return t.Before(w.To)
	}
	return !t.After(w.To)
}
