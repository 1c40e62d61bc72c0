// Package ledger_repo provides the PostgreSQL implementation of
// ledger.Repository. It only reads; queries run inside the snapshot opened by
// postgres.TxManager.ReadOnly when one is present in the context.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable                 = "products"
	pricesTable                   = "product_prices"
	purchasesTable                = "purchases"
	replenishmentCollectionsTable = "replenishmentcollections"
	replenishmentsTable           = "replenishments"
	stocktakingCollectionsTable   = "stocktakingcollections"
	stocktakingsTable             = "stocktakings"
)

var (
	productColumns    = []string{"id", "name", "active", "countable", "created_at"}
	priceColumns      = []string{"id", "product_id", "price", "admin_id", "timestamp"}
	collectionColumns = []string{"id", "revoked", "timestamp"}

	stocktakingColumns = []string{
		"s.id", "s.collection_id", "s.product_id", "s.count",
		"c.timestamp AS collection_timestamp",
	}
)

// Compile-time check that LedgerRepo implements ledger.Repository.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// --- Products ---

func (r *LedgerRepo) GetProduct(ctx context.Context, productID id.ID) (*ledger.Product, error) {
	var p ledger.Product
	found, err := r.get(ctx, &p, r.productQuery(productID))
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !found {
		return nil, apperror.NewProductNotFound(productID)
	}
	return &p, nil
}

func (r *LedgerRepo) ListCountableProducts(ctx context.Context) ([]ledger.Product, error) {
	var products []ledger.Product
	if err := r.selectAll(ctx, &products, r.countableProductsQuery()); err != nil {
		return nil, fmt.Errorf("list countable products: %w", err)
	}
	return products, nil
}

func (r *LedgerRepo) productQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)
}

func (r *LedgerRepo) countableProductsQuery() squirrel.SelectBuilder {
	return r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"countable": true}).
		OrderBy("id")
}

// --- Price history ---

func (r *LedgerRepo) GetLatestPrice(ctx context.Context, productID id.ID) (*ledger.PriceRecord, error) {
	return r.getPrice(ctx, r.latestPriceQuery(productID))
}

func (r *LedgerRepo) GetLatestPriceAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*ledger.PriceRecord, error) {
	return r.getPrice(ctx, r.latestPriceQuery(productID).Where(squirrel.LtOrEq{"timestamp": at}))
}

func (r *LedgerRepo) ListPricesBetween(ctx context.Context, productID id.ID, from, to time.Time) ([]ledger.PriceRecord, error) {
	var prices []ledger.PriceRecord
	if err := r.selectAll(ctx, &prices, r.pricesBetweenQuery(productID, from, to)); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return prices, nil
}

func (r *LedgerRepo) getPrice(ctx context.Context, q squirrel.SelectBuilder) (*ledger.PriceRecord, error) {
	var price ledger.PriceRecord
	found, err := r.get(ctx, &price, q)
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &price, nil
}

func (r *LedgerRepo) latestPriceQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(priceColumns...).
		From(pricesTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("timestamp DESC", "id DESC").
		Limit(1)
}

func (r *LedgerRepo) pricesBetweenQuery(productID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return r.builder.Select(priceColumns...).
		From(pricesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"timestamp": from}).
		Where(squirrel.Lt{"timestamp": to}).
		OrderBy("timestamp", "id")
}

// --- Aggregates ---

func (r *LedgerRepo) SumPurchases(ctx context.Context, productID id.ID, w ledger.Window) (ledger.Totals, error) {
	var totals ledger.Totals
	if _, err := r.get(ctx, &totals, r.purchaseSumQuery(productID, w)); err != nil {
		return ledger.Totals{}, fmt.Errorf("sum purchases: %w", err)
	}
	return totals, nil
}

func (r *LedgerRepo) SumReplenishments(ctx context.Context, productID id.ID, w ledger.Window) (ledger.Totals, error) {
	var totals ledger.Totals
	if _, err := r.get(ctx, &totals, r.replenishmentSumQuery(productID, w)); err != nil {
		return ledger.Totals{}, fmt.Errorf("sum replenishments: %w", err)
	}
	return totals, nil
}

func (r *LedgerRepo) purchaseSumQuery(productID id.ID, w ledger.Window) squirrel.SelectBuilder {
	q := r.builder.Select(
		"COALESCE(SUM(amount), 0)::bigint AS amount",
		"COALESCE(SUM(amount * price), 0)::bigint AS value",
	).From(purchasesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"revoked": false})
	return withinWindow(q, "timestamp", w)
}

// Replenishments are anchored to their collection's timestamp.
func (r *LedgerRepo) replenishmentSumQuery(productID id.ID, w ledger.Window) squirrel.SelectBuilder {
	q := r.builder.Select(
		"COALESCE(SUM(r.amount), 0)::bigint AS amount",
		"COALESCE(SUM(r.total_price), 0)::bigint AS value",
	).From(replenishmentsTable + " r").
		Join(replenishmentCollectionsTable + " c ON c.id = r.replcoll_id").
		Where(squirrel.Eq{"r.product_id": productID}).
		Where(squirrel.Eq{"r.revoked": false}).
		Where(squirrel.Eq{"c.revoked": false})
	return withinWindow(q, "c.timestamp", w)
}

func withinWindow(q squirrel.SelectBuilder, column string, w ledger.Window) squirrel.SelectBuilder {
	q = q.Where(squirrel.GtOrEq{column: w.From})
	if w.OpenEnd {
		return q.Where(squirrel.Lt{column: w.To})
	}
	return q.Where(squirrel.LtOrEq{column: w.To})
}

// --- Stocktakings ---

func (r *LedgerRepo) GetLatestStocktakingCollection(ctx context.Context) (*ledger.StocktakingCollection, error) {
	return r.getCollection(ctx, r.latestCollectionsQuery(1))
}

func (r *LedgerRepo) ListLatestStocktakingCollections(ctx context.Context, limit int) ([]ledger.StocktakingCollection, error) {
	var collections []ledger.StocktakingCollection
	if err := r.selectAll(ctx, &collections, r.latestCollectionsQuery(limit)); err != nil {
		return nil, fmt.Errorf("list stocktaking collections: %w", err)
	}
	return collections, nil
}

func (r *LedgerRepo) GetStocktakingCollection(ctx context.Context, collectionID id.ID) (*ledger.StocktakingCollection, error) {
	q := r.builder.Select(collectionColumns...).
		From(stocktakingCollectionsTable).
		Where(squirrel.Eq{"id": collectionID}).
		Where(squirrel.Eq{"revoked": false}).
		Limit(1)
	return r.getCollection(ctx, q)
}

func (r *LedgerRepo) GetLatestStocktakingOfProduct(ctx context.Context, productID id.ID) (*ledger.StocktakingRecord, error) {
	return r.getStocktaking(ctx, r.latestStocktakingOfProductQuery(productID))
}

func (r *LedgerRepo) GetLatestStocktakingOfProductAtOrBefore(ctx context.Context, productID id.ID, at time.Time) (*ledger.StocktakingRecord, error) {
	q := r.latestStocktakingOfProductQuery(productID).Where(squirrel.LtOrEq{"c.timestamp": at})
	return r.getStocktaking(ctx, q)
}

func (r *LedgerRepo) getStocktaking(ctx context.Context, q squirrel.SelectBuilder) (*ledger.StocktakingRecord, error) {
	var rec ledger.StocktakingRecord
	found, err := r.get(ctx, &rec, q)
	if err != nil {
		return nil, fmt.Errorf("get latest stocktaking: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

func (r *LedgerRepo) ListStocktakings(ctx context.Context, collectionID id.ID) ([]ledger.StocktakingRecord, error) {
	var records []ledger.StocktakingRecord
	if err := r.selectAll(ctx, &records, r.stocktakingsQuery(collectionID)); err != nil {
		return nil, fmt.Errorf("list stocktakings: %w", err)
	}
	return records, nil
}

func (r *LedgerRepo) getCollection(ctx context.Context, q squirrel.SelectBuilder) (*ledger.StocktakingCollection, error) {
	var c ledger.StocktakingCollection
	found, err := r.get(ctx, &c, q)
	if err != nil {
		return nil, fmt.Errorf("get stocktaking collection: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

// latestCollectionsQuery lists non-revoked collections newest first.
// A limit <= 0 lists all of them.
func (r *LedgerRepo) latestCollectionsQuery(limit int) squirrel.SelectBuilder {
	q := r.builder.Select(collectionColumns...).
		From(stocktakingCollectionsTable).
		Where(squirrel.Eq{"revoked": false}).
		OrderBy("timestamp DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func (r *LedgerRepo) latestStocktakingOfProductQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(stocktakingColumns...).
		From(stocktakingsTable + " s").
		Join(stocktakingCollectionsTable + " c ON c.id = s.collection_id").
		Where(squirrel.Eq{"s.product_id": productID}).
		Where(squirrel.Eq{"c.revoked": false}).
		OrderBy("c.timestamp DESC", "c.id DESC").
		Limit(1)
}

func (r *LedgerRepo) stocktakingsQuery(collectionID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(stocktakingColumns...).
		From(stocktakingsTable + " s").
		Join(stocktakingCollectionsTable + " c ON c.id = s.collection_id").
		Where(squirrel.Eq{"s.collection_id": collectionID}).
		OrderBy("s.product_id")
}

// --- helpers ---

// get scans a single row into dst. found is false when the query matched nothing.
func (r *LedgerRepo) get(ctx context.Context, dst any, q squirrel.SelectBuilder) (found bool, err error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *LedgerRepo) selectAll(ctx context.Context, dst any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	return pgxscan.Select(ctx, querier, dst, sql, args...)
}
