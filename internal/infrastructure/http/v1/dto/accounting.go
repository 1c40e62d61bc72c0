package dto

import (
	"time"

	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
)

// AmountResponse is the sum of purchased or replenished units in an interval.
type AmountResponse struct {
	ProductID string    `json:"productId"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Amount    int64     `json:"amount"`
}

// MeanPriceResponse is the day-weighted mean price over an interval.
type MeanPriceResponse struct {
	ProductID string    `json:"productId"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	MeanPrice int64     `json:"meanPrice"`
}

// StockResponse is the theoretical stock of a product.
// At is omitted when the stock was computed for the current time.
type StockResponse struct {
	ProductID string     `json:"productId"`
	At        *time.Time `json:"at,omitempty"`
	Stock     int64      `json:"stock"`
}

// StocktakingResponse wraps the latest stocktaking record of a product.
// Stocktaking is null when the product was never counted.
type StocktakingResponse struct {
	Stocktaking *ledger.StocktakingRecord `json:"stocktaking"`
}

// CollectionResponse wraps the latest stocktaking collection.
// Collection is null when there is none.
type CollectionResponse struct {
	Collection *ledger.StocktakingCollection `json:"collection"`
}

// BalanceRequest selects the two collections to reconcile.
// With both empty the two latest collections are used.
type BalanceRequest struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// BalanceResponse wraps a balance report.
// Report is null when there is not enough data to reconcile.
type BalanceResponse struct {
	Report *BalanceReportResponse `json:"report"`
}

// BalanceReportResponse mirrors accounting.BalanceReport with string keys.
type BalanceReportResponse struct {
	StartCollectionID string                               `json:"startCollectionId"`
	EndCollectionID   string                               `json:"endCollectionId"`
	StartTimestamp    time.Time                            `json:"startTimestamp"`
	EndTimestamp      time.Time                            `json:"endTimestamp"`
	Products          map[string]accounting.ProductBalance `json:"products"`
	TotalBalance      int64                                `json:"totalBalance"`
	Profit            int64                                `json:"profit"`
	Loss              int64                                `json:"loss"`
}

// FromBalanceReport converts a domain report to response DTO.
func FromBalanceReport(r *accounting.BalanceReport) BalanceResponse {
	if r == nil {
		return BalanceResponse{}
	}

	resp := &BalanceReportResponse{
		StartCollectionID: r.StartCollectionID.String(),
		EndCollectionID:   r.EndCollectionID.String(),
		StartTimestamp:    r.StartTimestamp,
		EndTimestamp:      r.EndTimestamp,
		Products:          make(map[string]accounting.ProductBalance, len(r.Products)),
		TotalBalance:      r.TotalBalance,
		Profit:            r.Profit,
		Loss:              r.Loss,
	}
	for productID, b := range r.Products {
		resp.Products[productID.String()] = b
	}
	return BalanceResponse{Report: resp}
}
