package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/stock"
)

// StockHandler handles stock entry and batch endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// CreateEntry handles POST /stock/entries.
func (h *StockHandler) CreateEntry(c *gin.Context) {
	var req stock.EntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateEntry(c.Request.Context(), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ListBatches handles GET /stock/batches?search=.
func (h *StockHandler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batches)
}

// Available handles GET /stock/available?productCode=.
func (h *StockHandler) Available(c *gin.Context) {
	batches, err := h.service.AvailableBatches(c.Request.Context(), c.Query("productCode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batches)
}

// ProductsWithStock handles GET /stock/products.
func (h *StockHandler) ProductsWithStock(c *gin.Context) {
	products, err := h.service.ProductsWithStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, products)
}

// UpdateBatch handles PUT /stock/batches/:id.
func (h *StockHandler) UpdateBatch(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var upd stock.BatchUpdate
	if !h.BindJSON(c, &upd) {
		return
	}

	if err := h.service.UpdateBatch(c.Request.Context(), batchID, upd); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch updated")
}

// DeleteBatch handles DELETE /stock/batches/:id.
func (h *StockHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
