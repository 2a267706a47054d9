package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/finance"
)

// FinanceHandler handles financial reporting endpoints.
type FinanceHandler struct {
	*BaseHandler
	service *finance.Service
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(base *BaseHandler, service *finance.Service) *FinanceHandler {
	return &FinanceHandler{BaseHandler: base, service: service}
}

// Metrics handles GET /finance/metrics?month=&year=.
func (h *FinanceHandler) Metrics(c *gin.Context) {
	now := time.Now()
	month := h.ParseIntQuery(c, "month", int(now.Month()))
	year := h.ParseIntQuery(c, "year", now.Year())

	metrics, err := h.service.Metrics(c.Request.Context(), month, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, metrics)
}

// Annual handles GET /finance/annual?year=.
func (h *FinanceHandler) Annual(c *gin.Context) {
	year := h.ParseIntQuery(c, "year", time.Now().Year())

	buckets, err := h.service.AnnualMetrics(c.Request.Context(), year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, buckets)
}

// Dashboard handles GET /finance/dashboard.
func (h *FinanceHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.DashboardMetrics(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dashboard)
}
