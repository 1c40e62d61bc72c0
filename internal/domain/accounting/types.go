package accounting

import (
	"time"

	"shopledger/internal/core/id"
)

// ProductBalance is one product's reconciliation between two stocktakings.
type ProductBalance struct {
	StartCount     int64 `json:"startCount"`
	EndCount       int64 `json:"endCount"`
	PurchaseCount  int64 `json:"purchaseCount"`
	PurchaseSum    int64 `json:"purchaseSum"`
	ReplenishCount int64 `json:"replenishCount"`
	ReplenishSum   int64 `json:"replenishSum"`
	Difference     int64 `json:"difference"`
	Balance        int64 `json:"balance"`
}

// BalanceReport aggregates ProductBalance over all countable products.
// Loss is a non-negative magnitude, so Profit - Loss == TotalBalance.
type BalanceReport struct {
	StartCollectionID id.ID                    `json:"startCollectionId"`
	EndCollectionID   id.ID                    `json:"endCollectionId"`
	StartTimestamp    time.Time                `json:"startTimestamp"`
	EndTimestamp      time.Time                `json:"endTimestamp"`
	Products          map[id.ID]ProductBalance `json:"products"`
	TotalBalance      int64                    `json:"totalBalance"`
	Profit            int64                    `json:"profit"`
	Loss              int64                    `json:"loss"`
}

// add folds one product into the report totals.
func (r *BalanceReport) add(productID id.ID, b ProductBalance) {
	r.Products[productID] = b
	r.TotalBalance += b.Balance
	if b.Balance < 0 {
		r.Loss -= b.Balance
	} else {
		r.Profit += b.Balance
	}
}
