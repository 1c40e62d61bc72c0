// Package ledger describes the committed shop ledger: products, their price
// history, purchases, replenishments and stocktakings.
// Records are written by upstream workflows; this package only reads them.
package ledger

import (
	"time"

	"shopledger/internal/core/id"
)

// Product is a sellable item.
// Only countable products take part in stocktaking accounting.
type Product struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	Countable bool      `db:"countable" json:"countable"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PriceRecord sets the product price from Timestamp onwards.
// Price is in the smallest currency unit.
type PriceRecord struct {
	ID        id.ID     `db:"id" json:"id"`
	ProductID id.ID     `db:"product_id" json:"productId"`
	Price     int64     `db:"price" json:"price"`
	AdminID   *id.ID    `db:"admin_id" json:"adminId,omitempty"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// PurchaseRecord is a sale of Amount units.
// Price is the unit price frozen when the purchase was made.
type PurchaseRecord struct {
	ID        id.ID     `db:"id" json:"id"`
	ProductID id.ID     `db:"product_id" json:"productId"`
	Amount    int64     `db:"amount" json:"amount"`
	Price     int64     `db:"price" json:"price"`
	Revoked   bool      `db:"revoked" json:"revoked"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Value returns the monetary value of the purchase.
func (p PurchaseRecord) Value() int64 {
	return p.Amount * p.Price
}

// ReplenishmentCollection groups replenishments booked together.
// Its Timestamp is the temporal anchor for all of its records.
type ReplenishmentCollection struct {
	ID        id.ID     `db:"id" json:"id"`
	Comment   string    `db:"comment" json:"comment"`
	Revoked   bool      `db:"revoked" json:"revoked"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// ReplenishmentRecord restocks Amount units of a product.
// It counts only if neither it nor its collection is revoked.
type ReplenishmentRecord struct {
	ID           id.ID `db:"id" json:"id"`
	CollectionID id.ID `db:"replcoll_id" json:"collectionId"`
	ProductID    id.ID `db:"product_id" json:"productId"`
	Amount       int64 `db:"amount" json:"amount"`
	TotalPrice   int64 `db:"total_price" json:"totalPrice"`
	Revoked      bool  `db:"revoked" json:"revoked"`
}

// StocktakingCollection is one counting session.
type StocktakingCollection struct {
	ID        id.ID     `db:"id" json:"id"`
	Revoked   bool      `db:"revoked" json:"revoked"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// StocktakingRecord is the physically counted quantity of one product.
// CollectionTimestamp is joined from the parent collection.
type StocktakingRecord struct {
	ID                  id.ID     `db:"id" json:"id"`
	CollectionID        id.ID     `db:"collection_id" json:"collectionId"`
	ProductID           id.ID     `db:"product_id" json:"productId"`
	Count               int64     `db:"count" json:"count"`
	CollectionTimestamp time.Time `db:"collection_timestamp" json:"collectionTimestamp"`
}
