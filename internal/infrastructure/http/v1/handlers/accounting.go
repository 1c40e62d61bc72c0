package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/infrastructure/export"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// AccountingHandler exposes the read-only accounting operations.
type AccountingHandler struct {
	*BaseHandler
	service *accounting.Service
}

// NewAccountingHandler creates a new accounting handler.
func NewAccountingHandler(base *BaseHandler, service *accounting.Service) *AccountingHandler {
	return &AccountingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RegisterRoutes registers accounting endpoints.
func (h *AccountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products/:id")
	{
		products.GET("/stock", h.GetStock)
		products.GET("/mean-price", h.GetMeanPrice)
		products.GET("/purchases/amount", h.GetPurchaseAmount)
		products.GET("/replenishments/amount", h.GetReplenishmentAmount)
		products.GET("/stocktakings/latest", h.GetLatestStocktaking)
	}

	rg.GET("/stocktakings/latest", h.GetLatestCollection)
	rg.GET("/balance", h.GetBalance)
	rg.GET("/balance/export", h.ExportBalance)
}

// GetStock handles GET /products/:id/stock?at=
// Without at the current time is used.
func (h *AccountingHandler) GetStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if at := c.Query("at"); at != "" {
		t, err := dto.ParseTimestamp("at", at)
		if err != nil {
			h.Error(c, err)
			return
		}
		stock, err := h.service.TheoreticalStockAt(ctx, productID, t)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.StockResponse{ProductID: productID.String(), At: &t, Stock: stock})
		return
	}

	stock, err := h.service.TheoreticalStock(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.StockResponse{ProductID: productID.String(), Stock: stock})
}

// GetMeanPrice handles GET /products/:id/mean-price?from=&to=
func (h *AccountingHandler) GetMeanPrice(c *gin.Context) {
	productID, from, to, ok := h.interval(c)
	if !ok {
		return
	}

	price, err := h.service.MeanPriceInRange(c.Request.Context(), productID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MeanPriceResponse{ProductID: productID.String(), From: from, To: to, MeanPrice: price})
}

// GetPurchaseAmount handles GET /products/:id/purchases/amount?from=&to=
func (h *AccountingHandler) GetPurchaseAmount(c *gin.Context) {
	productID, from, to, ok := h.interval(c)
	if !ok {
		return
	}

	amount, err := h.service.PurchaseAmountInInterval(c.Request.Context(), productID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AmountResponse{ProductID: productID.String(), From: from, To: to, Amount: amount})
}

// GetReplenishmentAmount handles GET /products/:id/replenishments/amount?from=&to=
func (h *AccountingHandler) GetReplenishmentAmount(c *gin.Context) {
	productID, from, to, ok := h.interval(c)
	if !ok {
		return
	}

	amount, err := h.service.ReplenishmentAmountInInterval(c.Request.Context(), productID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AmountResponse{ProductID: productID.String(), From: from, To: to, Amount: amount})
}

// GetLatestStocktaking handles GET /products/:id/stocktakings/latest
func (h *AccountingHandler) GetLatestStocktaking(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.LatestStocktakingOfProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.StocktakingResponse{Stocktaking: rec})
}

// GetLatestCollection handles GET /stocktakings/latest
func (h *AccountingHandler) GetLatestCollection(c *gin.Context) {
	coll, err := h.service.LatestNonRevokedStocktakingCollection(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CollectionResponse{Collection: coll})
}

// GetBalance handles GET /balance?start=&end=
func (h *AccountingHandler) GetBalance(c *gin.Context) {
	report, ok := h.balance(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromBalanceReport(report))
}

// ExportBalance handles GET /balance/export?start=&end=
// It answers 204 when there is not enough data to reconcile.
func (h *AccountingHandler) ExportBalance(c *gin.Context) {
	report, ok := h.balance(c)
	if !ok {
		return
	}
	if report == nil {
		c.Status(http.StatusNoContent)
		return
	}

	products, err := h.service.CountableProducts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBalanceXLSX(&buf, report, products); err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BalanceFilename(report)+`"`)
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// balance resolves the report for ?start=&end=; both empty selects the two
// latest collections.
func (h *AccountingHandler) balance(c *gin.Context) (*accounting.BalanceReport, bool) {
	var req dto.BalanceRequest
	if !h.BindQuery(c, &req) {
		return nil, false
	}

	ctx := c.Request.Context()
	var (
		report *accounting.BalanceReport
		err    error
	)
	switch {
	case req.Start == "" && req.End == "":
		report, err = h.service.LatestBalance(ctx)
	case req.Start == "" || req.End == "":
		h.Error(c, apperror.NewValidation("start and end must be given together"))
		return nil, false
	default:
		startID, parseErr := id.Parse(req.Start)
		if parseErr != nil {
			h.Error(c, apperror.NewValidation("invalid start").WithDetail("value", req.Start))
			return nil, false
		}
		endID, parseErr := id.Parse(req.End)
		if parseErr != nil {
			h.Error(c, apperror.NewValidation("invalid end").WithDetail("value", req.End))
			return nil, false
		}
		report, err = h.service.BalanceBetweenIDs(ctx, startID, endID)
	}
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return report, true
}

// interval parses the product id and the ?from=&to= pair.
func (h *AccountingHandler) interval(c *gin.Context) (productID id.ID, from, to time.Time, ok bool) {
	if productID, ok = h.ParamID(c, "id"); !ok {
		return
	}

	var req dto.IntervalRequest
	if ok = h.BindQuery(c, &req); !ok {
		return
	}

	var err error
	if from, to, err = req.Parse(); err != nil {
		h.Error(c, err)
		return productID, from, to, false
	}
	return productID, from, to, true
}
