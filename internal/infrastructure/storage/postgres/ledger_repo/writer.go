package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/storage/postgres"
)

var _ ledger.Writer = (*BatchWriter)(nil)

// BatchWriter queues ledger inserts and sends them in one transaction on
// Flush. It backs the demo seed; the upstream workflows own production writes.
type BatchWriter struct {
	builder squirrel.StatementBuilderType
	batch   *pgx.Batch
	err     error
}

// NewBatchWriter creates an empty writer.
func NewBatchWriter() *BatchWriter {
	return &BatchWriter{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		batch:   &pgx.Batch{},
	}
}

// Len returns the number of queued statements.
func (w *BatchWriter) Len() int {
	return w.batch.Len()
}

func (w *BatchWriter) queue(q squirrel.InsertBuilder) {
	if w.err != nil {
		return
	}
	sql, args, err := q.ToSql()
	if err != nil {
		w.err = fmt.Errorf("build insert: %w", err)
		return
	}
	w.batch.Queue(sql, args...)
}

func (w *BatchWriter) AddProduct(p ledger.Product) ledger.Product {
	ensureID(&p.ID)
	w.queue(w.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.Name, p.Active, p.Countable, p.CreatedAt))
	return p
}

func (w *BatchWriter) AddPrice(r ledger.PriceRecord) ledger.PriceRecord {
	ensureID(&r.ID)
	w.queue(w.builder.Insert(pricesTable).
		Columns(priceColumns...).
		Values(r.ID, r.ProductID, r.Price, r.AdminID, r.Timestamp))
	return r
}

func (w *BatchWriter) AddPurchase(r ledger.PurchaseRecord) ledger.PurchaseRecord {
	ensureID(&r.ID)
	w.queue(w.builder.Insert(purchasesTable).
		Columns("id", "product_id", "amount", "price", "revoked", "timestamp").
		Values(r.ID, r.ProductID, r.Amount, r.Price, r.Revoked, r.Timestamp))
	return r
}

func (w *BatchWriter) AddReplenishmentCollection(c ledger.ReplenishmentCollection, records ...ledger.ReplenishmentRecord) ledger.ReplenishmentCollection {
	ensureID(&c.ID)
	w.queue(w.builder.Insert(replenishmentCollectionsTable).
		Columns("id", "comment", "revoked", "timestamp").
		Values(c.ID, c.Comment, c.Revoked, c.Timestamp))

	if len(records) == 0 {
		return c
	}
	q := w.builder.Insert(replenishmentsTable).
		Columns("id", "replcoll_id", "product_id", "amount", "total_price", "revoked")
	for _, r := range records {
		ensureID(&r.ID)
		q = q.Values(r.ID, c.ID, r.ProductID, r.Amount, r.TotalPrice, r.Revoked)
	}
	w.queue(q)
	return c
}

func (w *BatchWriter) AddStocktakingCollection(c ledger.StocktakingCollection, records ...ledger.StocktakingRecord) ledger.StocktakingCollection {
	ensureID(&c.ID)
	w.queue(w.builder.Insert(stocktakingCollectionsTable).
		Columns(collectionColumns...).
		Values(c.ID, c.Revoked, c.Timestamp))

	if len(records) == 0 {
		return c
	}
	q := w.builder.Insert(stocktakingsTable).
		Columns("id", "collection_id", "product_id", "count")
	for _, r := range records {
		ensureID(&r.ID)
		q = q.Values(r.ID, c.ID, r.ProductID, r.Count)
	}
	w.queue(q)
	return c
}

// Flush sends every queued statement in one read-write transaction and resets
// the writer.
func (w *BatchWriter) Flush(ctx context.Context, pool *postgres.Pool) error {
	if w.err != nil {
		return w.err
	}
	batch := w.batch
	w.batch = &pgx.Batch{}

	return pgx.BeginFunc(ctx, pool.Pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range batch.Len() {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("batch statement %d: %w", i, err)
			}
		}
		return results.Close()
	})
}

func ensureID(v *id.ID) {
	if id.IsNil(*v) {
		*v = id.New()
	}
}
