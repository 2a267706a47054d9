package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles product catalog endpoints.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// List handles GET /products?search=.
func (h *CatalogHandler) List(c *gin.Context) {
	products, err := h.service.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, products)
}

// Get handles GET /products/:code.
func (h *CatalogHandler) Get(c *gin.Context) {
	product, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, product)
}

// Create handles POST /products.
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToProduct()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.Code)
}

// Update handles PUT /products/:code.
func (h *CatalogHandler) Update(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToProduct()
	if err := h.service.Update(c.Request.Context(), c.Param("code"), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /products/:code.
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// BulkImport handles POST /products/bulk.
func (h *CatalogHandler) BulkImport(c *gin.Context) {
	var req dto.BulkImportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	products := make([]catalog.Product, len(req.Products))
	for i := range req.Products {
		products[i] = *req.Products[i].ToProduct()
	}

	count, err := h.service.BulkUpsert(c.Request.Context(), products)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: int64(count)})
}

// PriceUpdate handles POST /products/price-update.
func (h *CatalogHandler) PriceUpdate(c *gin.Context) {
	var req dto.PriceUpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	count, err := h.service.ScaleListPrices(c.Request.Context(), req.Percentage)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: count})
}
