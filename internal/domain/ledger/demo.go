package ledger

import "time"

// Writer loads ledger records. Records with a nil ID get a fresh one; the
// returned value carries it.
type Writer interface {
	AddProduct(p Product) Product
	AddPrice(r PriceRecord) PriceRecord
	AddPurchase(r PurchaseRecord) PurchaseRecord
	AddReplenishmentCollection(c ReplenishmentCollection, records ...ReplenishmentRecord) ReplenishmentCollection
	AddStocktakingCollection(c StocktakingCollection, records ...StocktakingRecord) StocktakingCollection
}

// SeedDemo writes a small demo ledger ending at now: two stocktakings a week
// apart with purchases, a replenishment and a price change in between.
func SeedDemo(w Writer, now time.Time) {
	start := now.AddDate(0, 0, -7)

	coffee := w.AddProduct(Product{Name: "Coffee", Active: true, Countable: true, CreatedAt: start.AddDate(0, -1, 0)})
	mate := w.AddProduct(Product{Name: "Club Mate", Active: true, Countable: true, CreatedAt: start.AddDate(0, -1, 0)})
	w.AddProduct(Product{Name: "Gift card", Active: true, Countable: false, CreatedAt: start})

	w.AddPrice(PriceRecord{ProductID: coffee.ID, Price: 300, Timestamp: start.AddDate(0, -1, 0)})
	w.AddPrice(PriceRecord{ProductID: mate.ID, Price: 150, Timestamp: start.AddDate(0, -1, 0)})
	w.AddPrice(PriceRecord{ProductID: mate.ID, Price: 180, Timestamp: start.AddDate(0, 0, 3)})

	w.AddStocktakingCollection(StocktakingCollection{Timestamp: start},
		StocktakingRecord{ProductID: coffee.ID, Count: 100},
		StocktakingRecord{ProductID: mate.ID, Count: 40},
	)

	w.AddPurchase(PurchaseRecord{ProductID: coffee.ID, Amount: 3, Price: 300, Timestamp: start.AddDate(0, 0, 1)})
	w.AddPurchase(PurchaseRecord{ProductID: mate.ID, Amount: 5, Price: 150, Timestamp: start.AddDate(0, 0, 2)})
	w.AddPurchase(PurchaseRecord{ProductID: mate.ID, Amount: 2, Price: 180, Timestamp: start.AddDate(0, 0, 4)})

	w.AddReplenishmentCollection(ReplenishmentCollection{Comment: "weekly delivery", Timestamp: start.AddDate(0, 0, 2)},
		ReplenishmentRecord{ProductID: coffee.ID, Amount: 10, TotalPrice: 2000},
		ReplenishmentRecord{ProductID: mate.ID, Amount: 24, TotalPrice: 2400},
	)

	w.AddStocktakingCollection(StocktakingCollection{Timestamp: now.Add(-time.Hour)},
		StocktakingRecord{ProductID: coffee.ID, Count: 50},
		StocktakingRecord{ProductID: mate.ID, Count: 57},
	)
}
