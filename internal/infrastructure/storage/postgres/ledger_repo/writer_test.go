package ledger_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
)

func TestBatchWriter_QueuesInserts(t *testing.T) {
	w := NewBatchWriter()
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	p := w.AddProduct(ledger.Product{Name: "Coffee", Active: true, Countable: true})
	assert.False(t, id.IsNil(p.ID))

	c := w.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: ts},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 100},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 5},
	)
	assert.False(t, id.IsNil(c.ID))
	require.Equal(t, 3, w.Len())

	queued := w.batch.QueuedQueries
	assert.Equal(t,
		"INSERT INTO products (id,name,active,countable,created_at) VALUES ($1,$2,$3,$4,$5)",
		queued[0].SQL)
	assert.Equal(t,
		"INSERT INTO stocktakingcollections (id,revoked,timestamp) VALUES ($1,$2,$3)",
		queued[1].SQL)
	assert.Equal(t,
		"INSERT INTO stocktakings (id,collection_id,product_id,count) VALUES ($1,$2,$3,$4),($5,$6,$7,$8)",
		queued[2].SQL)
	assert.Len(t, queued[2].Arguments, 8)
}

func TestBatchWriter_CollectionWithoutRecords(t *testing.T) {
	w := NewBatchWriter()
	w.AddReplenishmentCollection(ledger.ReplenishmentCollection{Comment: "empty"})
	assert.Equal(t, 1, w.Len())
}

func TestBatchWriter_SeedDemo(t *testing.T) {
	w := NewBatchWriter()
	ledger.SeedDemo(w, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))

	// 3 products, 3 prices, 3 purchases, 2 stocktaking and 1 replenishment
	// collections, each collection followed by its records
	assert.Equal(t, 15, w.Len())
}
