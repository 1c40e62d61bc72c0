package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/export"
	"shopledger/internal/infrastructure/http/v1/dto"
	"shopledger/internal/infrastructure/storage/memory"
	"shopledger/pkg/logger"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	router  http.Handler
	store   *memory.Store
	product ledger.Product
	start   ledger.StocktakingCollection
	end     ledger.StocktakingCollection
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewStore()
	p := store.AddProduct(ledger.Product{Name: "Coffee", Active: true, Countable: true})
	store.AddPrice(ledger.PriceRecord{ProductID: p.ID, Price: 300, Timestamp: t0.AddDate(0, -1, 0)})

	start := store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 100})
	store.AddPurchase(ledger.PurchaseRecord{ProductID: p.ID, Amount: 3, Price: 300, Timestamp: t0.AddDate(0, 0, 1)})
	store.AddReplenishmentCollection(ledger.ReplenishmentCollection{Timestamp: t0.AddDate(0, 0, 2)},
		ledger.ReplenishmentRecord{ProductID: p.ID, Amount: 10, TotalPrice: 2000})
	end := store.AddStocktakingCollection(ledger.StocktakingCollection{Timestamp: t0.AddDate(0, 0, 7)},
		ledger.StocktakingRecord{ProductID: p.ID, Count: 50})

	now := t0.AddDate(0, 0, 8)
	svc := accounting.NewService(store, store, accounting.WithClock(func() time.Time { return now }))

	router := NewRouter(RouterConfig{
		Logger:    logger.NewNop(),
		Service:   svc,
		StoreName: "memory",
		Version:   "test",
	})
	return fixture{router: router, store: store, product: p, start: start, end: end}
}

func (f fixture) get(t *testing.T, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func interval(from, to time.Time) url.Values {
	return url.Values{
		"from": {from.Format(time.RFC3339)},
		"to":   {to.Format(time.RFC3339)},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory":"healthy"`)
}

func TestTraceHeaders(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestGetStock(t *testing.T) {
	f := newFixture(t)
	path := "/api/v1/products/" + f.product.ID.String() + "/stock"

	rec := f.get(t, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[dto.StockResponse](t, rec)
	assert.Equal(t, int64(50), resp.Stock)
	assert.Nil(t, resp.At)

	rec = f.get(t, path, url.Values{"at": {t0.AddDate(0, 0, 3).Format(time.RFC3339)}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[dto.StockResponse](t, rec)
	assert.Equal(t, int64(100-3+10), resp.Stock)
	require.NotNil(t, resp.At)
}

func TestGetAmounts(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/products/" + f.product.ID.String()

	rec := f.get(t, base+"/purchases/amount", interval(t0, t0.AddDate(0, 0, 7)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(3), decode[dto.AmountResponse](t, rec).Amount)

	rec = f.get(t, base+"/replenishments/amount", interval(t0, t0.AddDate(0, 0, 7)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(10), decode[dto.AmountResponse](t, rec).Amount)
}

func TestGetMeanPrice(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/products/"+f.product.ID.String()+"/mean-price", interval(t0, t0.AddDate(0, 0, 7)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(300), decode[dto.MeanPriceResponse](t, rec).MeanPrice)
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/products/" + f.product.ID.String()

	tests := []struct {
		name       string
		path       string
		query      url.Values
		wantStatus int
		wantCode   string
	}{
		{
			name:       "reversed interval",
			path:       base + "/purchases/amount",
			query:      interval(t0, t0.Add(-time.Hour)),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeInvalidInterval,
		},
		{
			name:       "empty mean price range",
			path:       base + "/mean-price",
			query:      interval(t0, t0),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeInvalidData,
		},
		{
			name:       "malformed timestamp",
			path:       base + "/mean-price",
			query:      url.Values{"from": {"yesterday"}, "to": {t0.Format(time.RFC3339)}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeInvalidData,
		},
		{
			name:       "missing bound",
			path:       base + "/purchases/amount",
			query:      url.Values{"from": {t0.Format(time.RFC3339)}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
		},
		{
			name:       "malformed product id",
			path:       "/api/v1/products/not-a-uuid/stock",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
		},
		{
			name:       "unknown product",
			path:       "/api/v1/products/" + f.start.ID.String() + "/stock",
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeNotFound,
		},
		{
			name:       "half a balance pair",
			path:       "/api/v1/balance",
			query:      url.Values{"start": {f.start.ID.String()}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(t, tt.path, tt.query)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[dto.ErrorResponse](t, rec).Code)
		})
	}
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/balance", url.Values{
		"start": {f.start.ID.String()},
		"end":   {f.end.ID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[dto.BalanceResponse](t, rec)
	require.NotNil(t, resp.Report)

	b := resp.Report.Products[f.product.ID.String()]
	assert.Equal(t, int64(-57), b.Difference)
	assert.Equal(t, int64(-17100), b.Balance)
	assert.Equal(t, int64(-17100), resp.Report.TotalBalance)
	assert.Equal(t, int64(17100), resp.Report.Loss)

	latest := decode[dto.BalanceResponse](t, f.get(t, "/api/v1/balance", nil))
	require.NotNil(t, latest.Report)
	assert.Equal(t, resp.Report.TotalBalance, latest.Report.TotalBalance)
}

func TestGetBalance_NotEnoughData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.RevokeStocktakingCollection(f.start.ID))

	rec := f.get(t, "/api/v1/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"report":null}`, rec.Body.String())

	rec = f.get(t, "/api/v1/balance/export", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportBalance(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/balance/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "balance_20240304_20240311.xlsx")

	book, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "Coffee", rows[1][1])
	assert.Equal(t, "-17100", rows[1][9])
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "http://shop.example")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	locked := NewRouter(RouterConfig{
		Logger:         logger.NewNop(),
		Service:        accounting.NewService(f.store, f.store),
		StoreName:      "memory",
		Production:     true,
		AllowedOrigins: []string{"https://shop.example"},
	})
	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	locked.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetLatestStocktakings(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/stocktakings/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	coll := decode[dto.CollectionResponse](t, rec)
	require.NotNil(t, coll.Collection)
	assert.Equal(t, f.end.ID, coll.Collection.ID)

	rec = f.get(t, "/api/v1/products/"+f.product.ID.String()+"/stocktakings/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[dto.StocktakingResponse](t, rec)
	require.NotNil(t, st.Stocktaking)
	assert.Equal(t, int64(50), st.Stocktaking.Count)
}
