// Package memory provides an in-memory ledger store for development mode and tests.
//
// The store is copy-on-write: every mutation publishes a new immutable state,
// and ReadOnly pins the current state into the context so that all reads of
// one operation observe the same data.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/ledger"
)

// state is one immutable version of the ledger.
type state struct {
	products       map[id.ID]ledger.Product
	prices         []ledger.PriceRecord
	purchases      []ledger.PurchaseRecord
	replColls      map[id.ID]ledger.ReplenishmentCollection
	replenishments []ledger.ReplenishmentRecord
	stockColls     map[id.ID]ledger.StocktakingCollection
	stocktakings   []ledger.StocktakingRecord
}

func newState() *state {
	return &state{
		products:   map[id.ID]ledger.Product{},
		replColls:  map[id.ID]ledger.ReplenishmentCollection{},
		stockColls: map[id.ID]ledger.StocktakingCollection{},
	}
}

func (s *state) clone() *state {
	return &state{
		products:       cloneMap(s.products),
		prices:         slices.Clone(s.prices),
		purchases:      slices.Clone(s.purchases),
		replColls:      cloneMap(s.replColls),
		replenishments: slices.Clone(s.replenishments),
		stockColls:     cloneMap(s.stockColls),
		stocktakings:   slices.Clone(s.stocktakings),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store implements ledger.Repository and tx.ReadOnlyManager.
type Store struct {
	mu      sync.RWMutex
	current *state
}

// Compile-time checks.
var (
	_ ledger.Repository  = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{current: newState()}
}

type snapshotKey struct{ store *Store }

// ReadOnly runs fn against a pinned snapshot. Nested calls reuse it.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(snapshotKey{s}).(*state); ok {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, snapshotKey{s}, s.load()))
}

func (s *Store) load() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// view returns the snapshot pinned in ctx or the latest state.
func (s *Store) view(ctx context.Context) *state {
	if st, ok := ctx.Value(snapshotKey{s}).(*state); ok {
		return st
	}
	return s.load()
}

// mutate applies fn to a private copy and publishes it.
func (s *Store) mutate(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// --- ledger.Repository ---

// GetProduct returns a product or a not-found AppError.
func (s *Store) GetProduct(ctx context.Context, productID id.ID) (*ledger.Product, error) {
	p, ok := s.view(ctx).products[productID]
	if !ok {
		return nil, apperror.NewProductNotFound(productID)
	}
	return &p, nil
}

// ListCountableProducts returns countable products ordered by id.
func (s *Store) ListCountableProducts(ctx context.Context) ([]ledger.Product, error) {
	var out []ledger.Product
	for _, p := range s.view(ctx).products {
		if p.Countable {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Product) int { return id.Compare(a.ID, b.ID) })
	return out, nil
}

// GetLatestPrice returns the newest price record of a product.
func (s *Store) GetLatestPrice(ctx context.Context, productID id.ID) (*ledger.PriceRecord, error) {
	return latestPrice(s.view(ctx).prices, func(r ledger.PriceRecord) bool {
		return r.ProductID == productID
	}), nil
}

// GetLatestPriceAtOrBefore returns the newest price record with timestamp <= at.
func (s *Store) GetLatestPriceAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*ledger.PriceRecord, error) {
	return latestPrice(s.view(ctx).prices, func(r ledger.PriceRecord) bool {
		return r.ProductID == productID && !r.Timestamp.After(at)
	}), nil
}

// ListPricesBetween returns records with from < timestamp < to, oldest first.
func (s *Store) ListPricesBetween(ctx context.Context, productID id.ID, from, to time.Time) ([]ledger.PriceRecord, error) {
	var out []ledger.PriceRecord
	for _, r := range s.view(ctx).prices {
		if r.ProductID == productID && r.Timestamp.After(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, comparePrices)
	return out, nil
}

// SumPurchases sums non-revoked purchases inside the window.
func (s *Store) SumPurchases(ctx context.Context, productID id.ID, w ledger.Window) (ledger.Totals, error) {
	var t ledger.Totals
	for _, p := range s.view(ctx).purchases {
		if p.ProductID == productID && !p.Revoked && w.Contains(p.Timestamp) {
			t.Amount += p.Amount
			t.Value += p.Value()
		}
	}
	return t, nil
}

// SumReplenishments sums valid replenishments whose collection lies inside the window.
func (s *Store) SumReplenishments(ctx context.Context, productID id.ID, w ledger.Window) (ledger.Totals, error) {
	st := s.view(ctx)
	var t ledger.Totals
	for _, r := range st.replenishments {
		if r.ProductID != productID || r.Revoked {
			continue
		}
		c, ok := st.replColls[r.CollectionID]
		if !ok || c.Revoked || !w.Contains(c.Timestamp) {
			continue
		}
		t.Amount += r.Amount
		t.Value += r.TotalPrice
	}
	return t, nil
}

// GetLatestStocktakingCollection returns the newest non-revoked collection.
func (s *Store) GetLatestStocktakingCollection(ctx context.Context) (*ledger.StocktakingCollection, error) {
	latest, err := s.ListLatestStocktakingCollections(ctx, 1)
	if err != nil || len(latest) == 0 {
		return nil, err
	}
	return &latest[0], nil
}

// ListLatestStocktakingCollections returns up to limit non-revoked collections, newest first.
func (s *Store) ListLatestStocktakingCollections(ctx context.Context, limit int) ([]ledger.StocktakingCollection, error) {
	var out []ledger.StocktakingCollection
	for _, c := range s.view(ctx).stockColls {
		if !c.Revoked {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b ledger.StocktakingCollection) int {
		return -compareCollections(a, b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetStocktakingCollection returns a non-revoked collection or nil.
func (s *Store) GetStocktakingCollection(ctx context.Context, collectionID id.ID) (*ledger.StocktakingCollection, error) {
	c, ok := s.view(ctx).stockColls[collectionID]
	if !ok || c.Revoked {
		return nil, nil
	}
	return &c, nil
}

// GetLatestStocktakingOfProduct returns the newest count from a non-revoked collection.
func (s *Store) GetLatestStocktakingOfProduct(ctx context.Context, productID id.ID) (*ledger.StocktakingRecord, error) {
	return latestStocktaking(s.view(ctx), productID, func(ledger.StocktakingCollection) bool { return true }), nil
}

// GetLatestStocktakingOfProductAtOrBefore ignores collections taken after at.
func (s *Store) GetLatestStocktakingOfProductAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*ledger.StocktakingRecord, error) {
	return latestStocktaking(s.view(ctx), productID, func(c ledger.StocktakingCollection) bool {
		return !c.Timestamp.After(at)
	}), nil
}

func latestStocktaking(st *state, productID id.ID, keep func(ledger.StocktakingCollection) bool) *ledger.StocktakingRecord {
	var latest *ledger.StocktakingRecord
	var latestColl ledger.StocktakingCollection
	for _, r := range st.stocktakings {
		if r.ProductID != productID {
			continue
		}
		c, ok := st.stockColls[r.CollectionID]
		if !ok || c.Revoked || !keep(c) {
			continue
		}
		if latest == nil || compareCollections(c, latestColl) > 0 {
			rec := r
			rec.CollectionTimestamp = c.Timestamp
			latest, latestColl = &rec, c
		}
	}
	return latest
}

// ListStocktakings returns all records of a collection.
func (s *Store) ListStocktakings(ctx context.Context, collectionID id.ID) ([]ledger.StocktakingRecord, error) {
	st := s.view(ctx)
	c, ok := st.stockColls[collectionID]
	if !ok {
		return nil, nil
	}
	var out []ledger.StocktakingRecord
	for _, r := range st.stocktakings {
		if r.CollectionID == collectionID {
			r.CollectionTimestamp = c.Timestamp
			out = append(out, r)
		}
	}
	return out, nil
}

// --- ordering helpers ---

func comparePrices(a, b ledger.PriceRecord) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return id.Compare(a.ID, b.ID)
}

func compareCollections(a, b ledger.StocktakingCollection) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return id.Compare(a.ID, b.ID)
}

func latestPrice(prices []ledger.PriceRecord, match func(ledger.PriceRecord) bool) *ledger.PriceRecord {
	var latest *ledger.PriceRecord
	for i := range prices {
		if !match(prices[i]) {
			continue
		}
		if latest == nil || comparePrices(prices[i], *latest) >= 0 {
			r := prices[i]
			latest = &r
		}
	}
	return latest
}

var _ ledger.Writer = (*Store)(nil)
