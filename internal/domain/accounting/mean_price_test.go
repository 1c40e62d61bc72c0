package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/storage/memory"
)

func date(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func TestMeanPriceInRange_SinglePriceAnyInterval(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()
	p := store.AddProduct(ledger.Product{Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 250, Timestamp: date(time.January, 1, 9)})

	for _, end := range []time.Time{date(time.January, 1, 10), date(time.January, 20, 0), date(time.December, 31, 23)} {
		got, err := svc.MeanPriceInRange(ctx, p.ID, date(time.January, 1, 9), end)
		require.NoError(t, err)
		assert.Equal(t, int64(250), got, "end %s", end)
	}
}

func TestMeanPriceInRange_FallsBackToCurrentPrice(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()
	p := store.AddProduct(ledger.Product{Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 420, Timestamp: date(time.March, 1, 0)})

	got, err := svc.MeanPriceInRange(ctx, p.ID, date(time.January, 1, 0), date(time.February, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(420), got)

	bare := store.AddProduct(ledger.Product{Countable: true})
	got, err = svc.MeanPriceInRange(ctx, bare.ID, date(time.January, 1, 0), date(time.February, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, got, "a product without price history has price 0")
}

func TestMeanPriceInRange_DayWeighted(t *testing.T) {
	tests := []struct {
		name   string
		prices []ledger.PriceRecord
		start  time.Time
		end    time.Time
		want   int64
	}{
		{
			name: "one change inside the range",
			prices: []ledger.PriceRecord{
				{Price: 100, Timestamp: date(time.January, 1, 0)},
				{Price: 200, Timestamp: date(time.January, 3, 10)},
			},
			start: date(time.January, 1, 12),
			end:   date(time.January, 5, 8),
			// Jan 2: 100, Jan 3..5: 200
			want: 175,
		},
		{
			name: "several changes on one day collapse to the last",
			prices: []ledger.PriceRecord{
				{Price: 100, Timestamp: date(time.January, 1, 0)},
				{Price: 500, Timestamp: date(time.January, 3, 9)},
				{Price: 200, Timestamp: date(time.January, 3, 15)},
			},
			start: date(time.January, 1, 12),
			end:   date(time.January, 4, 12),
			// Jan 2: 100, Jan 3: 200, Jan 4: 200 -> 166.67
			want: 167,
		},
		{
			name: "exact half rounds up",
			prices: []ledger.PriceRecord{
				{Price: 100, Timestamp: date(time.January, 1, 0)},
				{Price: 101, Timestamp: date(time.January, 3, 6)},
			},
			start: date(time.January, 1, 12),
			end:   date(time.January, 3, 12),
			// Jan 2: 100, Jan 3: 101 -> 100.5
			want: 101,
		},
		{
			name: "no price before start",
			prices: []ledger.PriceRecord{
				{Price: 300, Timestamp: date(time.January, 4, 8)},
				{Price: 600, Timestamp: date(time.January, 6, 8)},
			},
			start: date(time.January, 1, 12),
			end:   date(time.January, 7, 12),
			// walk starts Jan 4: 300, 300, 600, 600
			want: 450,
		},
		{
			name: "everything on one calendar day",
			prices: []ledger.PriceRecord{
				{Price: 100, Timestamp: date(time.January, 1, 7)},
				{Price: 300, Timestamp: date(time.January, 1, 10)},
			},
			start: date(time.January, 1, 8),
			end:   date(time.January, 1, 20),
			want:  300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			svc := newTestService(store)
			p := store.AddProduct(ledger.Product{Countable: true})
			for _, r := range tt.prices {
				r.ProductID = p.ID
				store.AddPrice(r)
			}

			got, err := svc.MeanPriceInRange(context.Background(), p.ID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeanPriceInRange_Errors(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()
	p := store.AddProduct(ledger.Product{Countable: true})
	start := date(time.January, 1, 0)

	_, err := svc.MeanPriceInRange(ctx, p.ID, start, start)
	assert.True(t, apperror.IsInvalidData(err), "empty range")

	_, err = svc.MeanPriceInRange(ctx, p.ID, start, start.Add(-time.Hour))
	assert.True(t, apperror.IsInvalidData(err), "reversed range")

	_, err = svc.MeanPriceInRange(ctx, p.ID, time.Time{}, start)
	assert.True(t, apperror.IsInvalidData(err), "zero start")

	_, err = svc.MeanPriceInRange(ctx, id.New(), start, start.Add(time.Hour))
	assert.True(t, apperror.IsNotFound(err))
}

func TestMeanPriceInRange_Location(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	store := memory.NewStore()
	p := store.AddProduct(ledger.Product{Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 100, Timestamp: date(time.January, 1, 0)})
	// 20:00 UTC on Jan 2 is already Jan 3 in UTC+10
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 200, Timestamp: date(time.January, 2, 20)})

	start, end := date(time.January, 1, 12), date(time.January, 3, 12)

	utc, err := newTestService(store).MeanPriceInRange(context.Background(), p.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(200), utc, "UTC: Jan 2 and Jan 3 both at 200")

	shifted, err := newTestService(store, WithLocation(loc)).MeanPriceInRange(context.Background(), p.ID, start, end)
	require.NoError(t, err)
	// UTC+10: start is Jan 1 22:00, end Jan 3 22:00; Jan 2 at 100, Jan 3 at 200
	assert.Equal(t, int64(150), shifted)
}

func TestPriceChanges_OrderIndependent(t *testing.T) {
	before := &ledger.PriceRecord{ID: id.New(), Price: 100, Timestamp: date(time.January, 1, 0)}
	a := ledger.PriceRecord{ID: id.New(), Price: 200, Timestamp: date(time.January, 3, 0)}
	b := ledger.PriceRecord{ID: id.New(), Price: 300, Timestamp: date(time.January, 3, 0)}
	c := ledger.PriceRecord{ID: id.New(), Price: 400, Timestamp: date(time.January, 5, 0)}

	startDay, endDay := date(time.January, 1, 0), date(time.January, 7, 0)
	want := dayWeightedMean(breakpoints(priceChanges(before, []ledger.PriceRecord{a, b, c}), time.UTC), startDay, endDay)

	orders := [][]ledger.PriceRecord{{c, b, a}, {b, a, c}, {c, a, b}}
	for _, order := range orders {
		input := append([]ledger.PriceRecord(nil), order...)
		got := dayWeightedMean(breakpoints(priceChanges(before, input), time.UTC), startDay, endDay)
		assert.Equal(t, want, got)
		assert.Equal(t, order, input, "fetched records must not be reordered in place")
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		sum, days, want int64
	}{
		{201, 2, 101},
		{199, 2, 100},
		{5, 3, 2},
		{4, 3, 1},
		{900, 3, 300},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundHalfUp(tt.sum, tt.days), "%d/%d", tt.sum, tt.days)
	}
}
