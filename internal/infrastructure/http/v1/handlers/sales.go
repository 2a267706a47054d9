package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/sales"
)

// SalesHandler handles sale endpoints.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales.
func (h *SalesHandler) Create(c *gin.Context) {
	var req sales.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// List handles GET /sales?month=&year=&isGift=&isLost=&search=.
func (h *SalesHandler) List(c *gin.Context) {
	filter := sales.ListFilter{
		Month:  h.ParseIntQuery(c, "month", 0),
		Year:   h.ParseIntQuery(c, "year", 0),
		Search: c.Query("search"),
	}
	filter.IsGift, _ = strconv.ParseBool(c.Query("isGift"))
	filter.IsLost, _ = strconv.ParseBool(c.Query("isLost"))

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get handles GET /sales/:id.
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Update handles PUT /sales/:id.
func (h *SalesHandler) Update(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req sales.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Update(c.Request.Context(), saleID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Delete handles DELETE /sales/:id.
func (h *SalesHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
